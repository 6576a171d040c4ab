package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/villagerloot/internal/bridge"
	"github.com/udisondev/villagerloot/internal/command"
	"github.com/udisondev/villagerloot/internal/config"
	"github.com/udisondev/villagerloot/internal/db"
	"github.com/udisondev/villagerloot/internal/game/deathdrop"
	"github.com/udisondev/villagerloot/internal/game/loot"
	"github.com/udisondev/villagerloot/internal/host"
	"github.com/udisondev/villagerloot/internal/sched"
	"github.com/udisondev/villagerloot/internal/settings"
	"github.com/udisondev/villagerloot/internal/world"
)

const ConfigPath = "config/lootserver.yaml"

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("VLOOT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("villager loot server starting",
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"path", cfg.Path,
		"log_level", cfg.LogLevel)

	// Settings storage: PostgreSQL when enabled, memory otherwise
	var storage settings.Storage
	if cfg.Database.Enabled {
		database, err := db.Connect(ctx, cfg.Database.DSN(), cfg.Database.ConnectRetries, cfg.Database.ConnectBackoff)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrationsPool(ctx, database.Pool()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		storage = db.NewFlagRepository(database.Pool())
	} else {
		slog.Warn("database disabled, settings will not survive a restart")
		storage = settings.NewMemoryStorage()
	}

	store := settings.NewStore(storage)
	if err := store.Load(ctx); err != nil {
		// every settings read retries until storage answers
		slog.Error("loading settings", "error", err)
	}

	table := loot.DefaultTable()
	if err := table.Validate(); err != nil {
		return fmt.Errorf("loot table: %w", err)
	}

	players := world.New()
	timers := sched.NewTimers()

	bridgeServer := bridge.NewServer(cfg.Bridge)
	hostCmds := host.NewCommands(bridgeServer)

	deaths := deathdrop.NewHandler(cfg.Loot, hostCmds, store, players, loot.NewResolver(table, nil), timers)

	cmds := command.NewHandler()
	command.RegisterAll(cmds, store, cfg.Bridge.ChatPrefix)
	slog.Info("settings commands registered", "names", cmds.CommandCount(), "prefix", cfg.Bridge.ChatPrefix)

	dispatcher := bridge.NewDispatcher(bridgeServer.Events(), deaths, players, cmds, hostCmds, cfg.Bridge.ChatPrefix)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, bridgeServer)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("bridge listening", "address", httpServer.Addr, "path", cfg.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting event dispatcher", "queue", cfg.Bridge.SendQueueSize)
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("bridge shutdown", "error", err)
		}
		// let pending loot feedback reach the host before dropping it
		if err := timers.Wait(shutdownCtx); err != nil {
			slog.Warn("pending feedback not delivered", "error", err)
		}
		bridgeServer.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("villager loot server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
