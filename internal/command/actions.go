package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/villagerloot/internal/model"
	"github.com/udisondev/villagerloot/internal/settings"
)

// Settings is the settings store as seen by the command surface.
type Settings interface {
	Flags(ctx context.Context) settings.Flags
	BabyDropEnabled(ctx context.Context, playerID string) bool
	SetPlayerBabyDrop(ctx context.Context, playerID string, enabled bool) error
	SetWorldBabyDrop(ctx context.Context, enabled bool) error
	SetApplyAll(ctx context.Context, applyAll bool) error
	SetNBTDrop(ctx context.Context, enabled bool) error
}

// RegisterAll registers every settings action into the handler.
// prefix is what players type before an action, used in help text.
func RegisterAll(h *Handler, s Settings, prefix string) {
	h.Register(&BabyDrop{settings: s})
	h.Register(&ApplyAll{settings: s})
	h.Register(&NBTDrop{settings: s})
	h.Register(&Info{settings: s})
	h.Register(&Help{prefix: prefix})
}

// optionalBool parses the optional argument of a toggle action.
// set is false when the argument was omitted.
func optionalBool(args []string) (value, set bool, err error) {
	switch len(args) {
	case 1:
		return false, false, nil
	case 2:
		v, err := ParseBool(args[1])
		if err != nil {
			return false, false, err
		}
		return v, true, nil
	}
	return false, false, fmt.Errorf("%w: %s takes at most one argument", ErrInvalidArgument, args[0])
}

func requireOperator(caller *model.Player, action string) error {
	if !IsOperator(caller) {
		return fmt.Errorf("%w to change %s", ErrPermissionDenied, action)
	}
	return nil
}

// BabyDrop handles baby_drop: whether baby villagers drop loot.
// In apply-all mode each player sets their own value; otherwise operators
// set the world-wide value.
type BabyDrop struct {
	settings Settings
}

func (c *BabyDrop) Names() []string { return []string{"baby_drop"} }

func (c *BabyDrop) Handle(ctx context.Context, caller *model.Player, args []string) (string, error) {
	v, set, err := optionalBool(args)
	if err != nil {
		return "", err
	}

	applyAll := c.settings.Flags(ctx).BabyDropApplyAll
	if !set {
		if applyAll {
			return "Baby villager drops for you: " + onOff(c.settings.BabyDropEnabled(ctx, caller.ID())), nil
		}
		return "Baby villager drops for everyone: " + onOff(c.settings.Flags(ctx).BabyDropEnabledWorld), nil
	}

	if applyAll {
		if err := c.settings.SetPlayerBabyDrop(ctx, caller.ID(), v); err != nil {
			return "", err
		}
		slog.Info("player baby drop changed", "player", caller.Name(), "enabled", v)
		return "Baby villager drops for you set to " + onOff(v) + ".", nil
	}

	if err := requireOperator(caller, "baby_drop for everyone"); err != nil {
		return "", err
	}
	if err := c.settings.SetWorldBabyDrop(ctx, v); err != nil {
		return "", err
	}
	slog.Info("world baby drop changed", "player", caller.Name(), "enabled", v)
	return "Baby villager drops for everyone set to " + onOff(v) + ".", nil
}

// ApplyAll handles bd_aap: per-player (on) or world-wide (off) baby drop setting.
type ApplyAll struct {
	settings Settings
}

func (c *ApplyAll) Names() []string { return []string{"bd_aap"} }

func (c *ApplyAll) Handle(ctx context.Context, caller *model.Player, args []string) (string, error) {
	v, set, err := optionalBool(args)
	if err != nil {
		return "", err
	}
	was := c.settings.Flags(ctx).BabyDropApplyAll
	if !set {
		return "Per-player baby drop setting: " + onOff(was), nil
	}

	if err := requireOperator(caller, "bd_aap"); err != nil {
		return "", err
	}
	if err := c.settings.SetApplyAll(ctx, v); err != nil {
		return "", err
	}
	slog.Info("baby drop apply-all changed", "player", caller.Name(), "applyAll", v)

	msg := "Per-player baby drop setting set to " + onOff(v) + "."
	if was && !v {
		msg += " All player settings were reset."
	}
	return msg, nil
}

// NBTDrop handles nbt_drop: whether the mythic tiers may fire.
type NBTDrop struct {
	settings Settings
}

func (c *NBTDrop) Names() []string { return []string{"nbt_drop"} }

func (c *NBTDrop) Handle(ctx context.Context, caller *model.Player, args []string) (string, error) {
	v, set, err := optionalBool(args)
	if err != nil {
		return "", err
	}
	if !set {
		return "Mythic (NBT) drops: " + onOff(c.settings.Flags(ctx).NBTDropEnabled), nil
	}

	if err := requireOperator(caller, "nbt_drop"); err != nil {
		return "", err
	}
	if err := c.settings.SetNBTDrop(ctx, v); err != nil {
		return "", err
	}
	slog.Info("nbt drop changed", "player", caller.Name(), "enabled", v)
	return "Mythic (NBT) drops set to " + onOff(v) + ".", nil
}

// Info reports the effective value of every setting for the caller.
type Info struct {
	settings Settings
}

func (c *Info) Names() []string { return []string{"info", "status"} }

func (c *Info) Handle(ctx context.Context, caller *model.Player, args []string) (string, error) {
	flags := c.settings.Flags(ctx)

	var b strings.Builder
	b.WriteString("=== Villager loot settings ===\n")
	if flags.BabyDropApplyAll {
		fmt.Fprintf(&b, "baby_drop: %s (your setting)\n", onOff(c.settings.BabyDropEnabled(ctx, caller.ID())))
	} else {
		fmt.Fprintf(&b, "baby_drop: %s (everyone)\n", onOff(flags.BabyDropEnabledWorld))
	}
	fmt.Fprintf(&b, "bd_aap: %s\n", onOff(flags.BabyDropApplyAll))
	fmt.Fprintf(&b, "nbt_drop: %s", onOff(flags.NBTDropEnabled))
	return b.String(), nil
}

// Help prints static usage text.
type Help struct {
	prefix string
}

func (c *Help) Names() []string { return []string{"help", "?"} }

func (c *Help) Handle(_ context.Context, _ *model.Player, _ []string) (string, error) {
	p := c.prefix
	if p != "" {
		p += " "
	}

	lines := []string{
		"=== Villager loot commands ===",
		p + "baby_drop [true|false] - baby villager drops (yours, or everyone's when bd_aap is off; operator)",
		p + "bd_aap [true|false] - per-player baby drop setting (operator)",
		p + "nbt_drop [true|false] - mythic armor and box drops (operator)",
		p + "info - show current settings",
		p + "help - show this text",
		"Without an argument an action shows its current value.",
	}
	return strings.Join(lines, "\n"), nil
}
