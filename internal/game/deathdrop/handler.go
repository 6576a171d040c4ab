// Package deathdrop reacts to deaths of the target species and hands out
// the loot cascade to the responsible player.
package deathdrop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/villagerloot/internal/config"
	"github.com/udisondev/villagerloot/internal/game/loot"
	"github.com/udisondev/villagerloot/internal/host"
	"github.com/udisondev/villagerloot/internal/model"
	"github.com/udisondev/villagerloot/internal/sched"
)

// Feedback texts.
const (
	FireworkMessage = "Bonus! You received %d fireworks."
	NoDropMessage   = "§7The villager dropped no bonus items this time."
)

// Settings is the read side of the settings store.
type Settings interface {
	BabyDropEnabled(ctx context.Context, playerID string) bool
	NBTDropEnabled(ctx context.Context) bool
}

// Players resolves who gets the credit for a kill.
type Players interface {
	GetPlayer(id string) *model.Player
	Nearest(loc model.Location, dim string) *model.Player
}

// Skip reasons reported when a death is not eligible.
const (
	SkipWrongSpecies  = "wrong species"
	SkipNoKiller      = "no killer"
	SkipNotQualifying = "killer not qualifying"
	SkipNoPlayer      = "no player nearby"
	SkipBabyDisabled  = "baby drop disabled"
)

// Report describes what one death produced. Used for logging and tests.
type Report struct {
	Eligible bool
	Skip     string // set when not eligible
	Target   string // name of the credited player
	Outcome  loot.Outcome
	Deferred int // feedback messages scheduled for later
}

// Handler processes entity death events.
// Calls are expected to be serialized by the caller's event dispatch.
type Handler struct {
	cfg       config.LootConfig
	host      host.Host
	settings  Settings
	players   Players
	resolver  *loot.Resolver
	scheduler sched.Scheduler
}

// NewHandler creates a death event handler.
func NewHandler(cfg config.LootConfig, h host.Host, settings Settings, players Players, resolver *loot.Resolver, scheduler sched.Scheduler) *Handler {
	return &Handler{
		cfg:       cfg,
		host:      h,
		settings:  settings,
		players:   players,
		resolver:  resolver,
		scheduler: scheduler,
	}
}

// HandleDeath runs the eligibility gate, the base loot spawn and the cascade.
// Host failures are logged and never abort the remaining steps.
func (h *Handler) HandleDeath(ctx context.Context, ev model.KillEvent) Report {
	target, skip := h.resolveTarget(ctx, ev)
	if skip != "" {
		slog.Debug("death ignored",
			"victim", ev.Victim.TypeID,
			"reason", skip)
		return Report{Skip: skip}
	}

	report := Report{Eligible: true, Target: target.Name()}

	restore := h.suppressFeedback(ctx)
	defer restore()

	h.call(ctx, "spawn loot", func() error {
		return h.host.SpawnLoot(ctx, ev.Dimension, ev.Location, h.cfg.LootTable)
	})

	out := h.resolver.Roll(h.settings.NBTDropEnabled(ctx))
	report.Outcome = out
	report.Deferred = h.apply(ctx, ev, target.Name(), out)

	slog.Info("villager loot resolved",
		"player", target.Name(),
		"location", ev.Location,
		"fireworks", out.Fireworks,
		"tiers", tierNames(out),
		"deferred", report.Deferred)
	return report
}

// resolveTarget returns the credited player or a skip reason.
func (h *Handler) resolveTarget(ctx context.Context, ev model.KillEvent) (*model.Player, string) {
	if ev.Victim.TypeID != h.cfg.TargetSpecies {
		return nil, SkipWrongSpecies
	}
	killer := ev.Killer
	if killer == nil {
		return nil, SkipNoKiller
	}
	if !h.cfg.IsQualifyingKiller(killer.TypeID) {
		return nil, SkipNotQualifying
	}

	var target *model.Player
	if killer.IsType(h.cfg.PlayerType) {
		target = h.players.GetPlayer(killer.ID)
		if target == nil {
			// killer not in the roster yet; credit it from the event itself
			p, err := model.NewPlayer(killer.ID, killer.Name, ev.Location, 0)
			if err != nil {
				return nil, SkipNoPlayer
			}
			target = p
		}
	} else {
		target = h.players.Nearest(ev.Location, ev.Dimension)
		if target == nil {
			return nil, SkipNoPlayer
		}
	}

	if ev.VictimIsBaby && !h.settings.BabyDropEnabled(ctx, target.ID()) {
		return nil, SkipBabyDisabled
	}
	return target, ""
}

// suppressFeedback switches the configured game rule off and returns a
// func restoring its original value. The restore always runs via defer.
func (h *Handler) suppressFeedback(ctx context.Context) func() {
	rule := h.cfg.SuppressRule
	if rule == "" {
		return func() {}
	}

	var original bool
	ok := h.call(ctx, "read game rule", func() error {
		v, err := h.host.GameRule(ctx, rule)
		original = v
		return err
	})
	if !ok || !original {
		// unknown or already off: nothing to restore
		return func() {}
	}

	if !h.call(ctx, "suppress game rule", func() error {
		return h.host.SetGameRule(ctx, rule, false)
	}) {
		return func() {}
	}

	return func() {
		h.call(ctx, "restore game rule", func() error {
			return h.host.SetGameRule(ctx, rule, original)
		})
	}
}

// apply materializes the outcome and sends feedback. Returns the number of
// deferred feedback tasks.
func (h *Handler) apply(ctx context.Context, ev model.KillEvent, player string, out loot.Outcome) int {
	if out.Empty() {
		h.feedback(ctx, player, NoDropMessage, loot.NoDropSound)
		return 0
	}

	if out.FireworkFired() {
		fw := h.resolver.Table().Firework
		h.call(ctx, "give fireworks", func() error {
			return h.host.GiveItem(ctx, player, fw.Item, out.Fireworks)
		})
		h.feedback(ctx, player, fw.Color+fmt.Sprintf(FireworkMessage, out.Fireworks), fw.Sound)
	}

	deferred := 0
	for _, drop := range out.Drops {
		for _, tok := range drop.Tokens {
			h.call(ctx, "load structure "+string(tok), func() error {
				return h.host.LoadStructure(ctx, ev.Dimension, string(tok), ev.Location)
			})
		}

		msg, sound := drop.Message(), drop.Tier.Sound
		if drop.Tier.Delayable && out.FireworkFired() && h.scheduler != nil {
			// already earned; deliver even if the dispatcher is stopping
			later := context.WithoutCancel(ctx)
			h.scheduler.After(h.cfg.FeedbackDelay, sched.Task{
				Name: "loot feedback " + drop.Tier.Name,
				Run:  func() { h.feedback(later, player, msg, sound) },
			})
			deferred++
			continue
		}
		h.feedback(ctx, player, msg, sound)
	}
	return deferred
}

// feedback sends a message and a sound; each call is isolated.
func (h *Handler) feedback(ctx context.Context, player, msg, sound string) {
	h.call(ctx, "tell", func() error {
		return h.host.Tell(ctx, player, msg)
	})
	h.call(ctx, "play sound "+sound, func() error {
		return h.host.PlaySound(ctx, player, sound)
	})
}

// call runs one host invocation, logging errors and recovering panics.
// Returns true on success.
func (h *Handler) call(ctx context.Context, what string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("host call panicked",
				"call", what,
				"panic", r)
			ok = false
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.Warn("host call skipped", "call", what, "error", err)
		return false
	}
	if err := fn(); err != nil {
		slog.Error("host call failed",
			"call", what,
			"error", err)
		return false
	}
	return true
}

func tierNames(out loot.Outcome) string {
	names := make([]string, 0, len(out.Drops))
	for _, d := range out.Drops {
		names = append(names, d.Tier.Name)
	}
	return strings.Join(names, ",")
}
