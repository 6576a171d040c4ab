package bridge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/udisondev/villagerloot/internal/command"
	"github.com/udisondev/villagerloot/internal/game/deathdrop"
	"github.com/udisondev/villagerloot/internal/model"
)

// DeathHandler processes entity deaths.
type DeathHandler interface {
	HandleDeath(ctx context.Context, ev model.KillEvent) deathdrop.Report
}

// CommandExecutor runs settings commands.
type CommandExecutor interface {
	Execute(ctx context.Context, caller *model.Player, line string) command.Result
}

// Roster tracks online players.
type Roster interface {
	AddPlayer(p *model.Player)
	RemovePlayer(id string) bool
	GetPlayer(id string) *model.Player
	FindPlayerByName(name string) *model.Player
	PlayerCount() int
}

// Teller delivers command replies.
type Teller interface {
	Tell(ctx context.Context, player string, text string) error
}

// Dispatcher consumes event frames on a single goroutine, so deaths and
// commands never run concurrently.
type Dispatcher struct {
	events   <-chan Frame
	deaths   DeathHandler
	roster   Roster
	commands CommandExecutor
	teller   Teller
	prefix   string
}

// NewDispatcher creates a dispatcher. Chat messages starting with prefix
// are settings commands; an empty prefix treats every message as one.
func NewDispatcher(events <-chan Frame, deaths DeathHandler, roster Roster, commands CommandExecutor, teller Teller, prefix string) *Dispatcher {
	return &Dispatcher{
		events:   events,
		deaths:   deaths,
		roster:   roster,
		commands: commands,
		teller:   teller,
		prefix:   prefix,
	}
}

// Run dispatches events until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-d.events:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, f)
		}
	}
}

// Dispatch handles one event frame. Malformed frames and handler panics
// are logged and contained to the frame.
func (d *Dispatcher) Dispatch(ctx context.Context, f Frame) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event", f.Header.EventName,
				"panic", r)
		}
	}()

	var err error
	switch f.Header.EventName {
	case EventEntityDie:
		err = d.onEntityDie(ctx, f)
	case EventPlayerJoin, EventPlayerUpdate:
		err = d.onPlayer(f)
	case EventPlayerLeave:
		err = d.onPlayerLeave(f)
	case EventPlayerMessage:
		err = d.onPlayerMessage(ctx, f)
	default:
		slog.Debug("unhandled event", "event", f.Header.EventName)
	}
	if err != nil {
		slog.Warn("bad event", "event", f.Header.EventName, "error", err)
	}
}

func (d *Dispatcher) onEntityDie(ctx context.Context, f Frame) error {
	var body EntityDieBody
	if err := decodeBody(f, &body); err != nil {
		return err
	}
	d.deaths.HandleDeath(ctx, body.KillEvent())
	return nil
}

func (d *Dispatcher) onPlayer(f Frame) error {
	var body PlayerBody
	if err := decodeBody(f, &body); err != nil {
		return err
	}

	if p := d.roster.GetPlayer(body.ID); p != nil {
		p.SetLocation(body.Location)
		p.SetDimension(body.Dimension)
		p.SetAccessLevel(body.PermissionLevel)
		return nil
	}

	p, err := playerFromBody(body)
	if err != nil {
		return err
	}
	d.roster.AddPlayer(p)
	if f.Header.EventName == EventPlayerJoin {
		slog.Info("player joined", "player", p.Name(), "id", p.ID(), "online", d.roster.PlayerCount())
	}
	return nil
}

func (d *Dispatcher) onPlayerLeave(f Frame) error {
	var body PlayerBody
	if err := decodeBody(f, &body); err != nil {
		return err
	}
	if d.roster.RemovePlayer(body.ID) {
		slog.Info("player left", "player", body.Name, "id", body.ID, "online", d.roster.PlayerCount())
	}
	return nil
}

func (d *Dispatcher) onPlayerMessage(ctx context.Context, f Frame) error {
	var body PlayerMessageBody
	if err := decodeBody(f, &body); err != nil {
		return err
	}

	line, ok := d.commandLine(body.Message)
	if !ok {
		return nil
	}

	var caller *model.Player
	if body.Sender.ID != "" {
		caller = d.roster.GetPlayer(body.Sender.ID)
	} else if body.Sender.Name != "" {
		// some hosts omit the sender id on chat events
		caller = d.roster.FindPlayerByName(body.Sender.Name)
	}
	if caller != nil {
		caller.SetAccessLevel(body.Sender.PermissionLevel)
	} else if p, err := playerFromBody(body.Sender); err == nil {
		caller = p
	}

	res := d.commands.Execute(ctx, caller, line)
	slog.Debug("settings command result",
		"player", body.Sender.Name,
		"command", line,
		"ok", res.OK)

	if res.Message == "" || body.Sender.Name == "" {
		return nil
	}
	if err := d.teller.Tell(ctx, body.Sender.Name, res.Message); err != nil {
		slog.Error("sending command reply", "player", body.Sender.Name, "error", err)
	}
	return nil
}

// commandLine strips the chat prefix. ok is false for ordinary chat.
func (d *Dispatcher) commandLine(msg string) (string, bool) {
	msg = strings.TrimSpace(msg)
	if d.prefix == "" {
		return msg, msg != ""
	}

	rest, ok := strings.CutPrefix(msg, d.prefix)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		// "!vlootx" is not our prefix
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		rest = "help"
	}
	return rest, true
}

func playerFromBody(b PlayerBody) (*model.Player, error) {
	p, err := model.NewPlayer(b.ID, b.Name, b.Location, b.PermissionLevel)
	if err != nil {
		return nil, err
	}
	p.SetDimension(b.Dimension)
	return p, nil
}
