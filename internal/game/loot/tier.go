// Package loot holds the villager loot tiers and rolls the cascade.
//
// The cascade is not a single weighted draw: every tier is an independent
// Bernoulli trial, evaluated in table order, so several tiers may fire on the
// same kill.
package loot

import (
	"fmt"
	"strings"
)

// ItemToken names a prefab (structure) the host can materialize.
type ItemToken string

// Tier is one probability bracket of the cascade.
type Tier struct {
	Name        string
	Probability float64 // in (0, 1]
	Candidates  []ItemToken
	Color       string // § formatting code prefixed to feedback
	MaxRolls    int    // >= 1; when > 1 the roll count is uniform in [1, MaxRolls]
	RequiresNBT bool   // skipped entirely while NBT drops are disabled
	Delayable   bool   // feedback deferred when the firework bonus fired on the same kill
	Label       string // what dropped, used in the feedback message
	Sound       string
}

// Firework is the bonus grant evaluated before the tiers.
type Firework struct {
	Probability float64
	Item        string // item id given with the give command
	Min, Max    int    // stack size bounds, inclusive
	Color       string
	Sound       string
}

// Table is the full cascade definition.
type Table struct {
	Firework Firework
	Tiers    []Tier
}

// Sounds used when nothing fired.
const (
	NoDropSound = "note.bass"
)

// DefaultTable returns the villager tier table.
// Order matters: it is the evaluation order of the cascade.
func DefaultTable() Table {
	return Table{
		Firework: Firework{
			Probability: 0.70,
			Item:        "firework_rocket",
			Min:         20,
			Max:         64,
			Color:       "§e",
			Sound:       "firework.launch",
		},
		Tiers: []Tier{
			{
				Name:        "common",
				Probability: 0.35,
				Candidates:  []ItemToken{"arrow", "spyglass", "hanabi", "elytra", "fishing_hook1", "fishing_hook2"},
				Color:       "§a",
				MaxRolls:    1,
				Label:       "a common item",
				Sound:       "random.orb",
			},
			{
				Name:        "rare",
				Probability: 0.15,
				Candidates:  []ItemToken{"shield", "trident1", "trident2"},
				Color:       "§b",
				MaxRolls:    1,
				Label:       "a rare item",
				Sound:       "random.levelup",
			},
			{
				Name:        "epic",
				Probability: 0.10,
				Candidates:  []ItemToken{"powder_snow_boots", "piglin_helmet", "frost_walker_boots", "piglin_chestplate"},
				Color:       "§d",
				MaxRolls:    1,
				Label:       "an epic item",
				Sound:       "random.levelup",
			},
			{
				Name:        "legendary",
				Probability: 0.05,
				Candidates:  []ItemToken{"saikyou_bow", "saikyou_sword"},
				Color:       "§6",
				MaxRolls:    1,
				Delayable:   true,
				Label:       "a legendary weapon",
				Sound:       "ui.toast.challenge_complete",
			},
			{
				Name:        "mythic_armor",
				Probability: 0.01,
				Candidates:  []ItemToken{"saikyou_helmet", "saikyou_chestplate", "saikyou_leggings", "saikyou_boots"},
				Color:       "§c",
				MaxRolls:    4,
				RequiresNBT: true,
				Delayable:   true,
				Label:       "mythic armor",
				Sound:       "ui.toast.challenge_complete",
			},
			{
				Name:        "mythic_box",
				Probability: 0.005,
				Candidates:  []ItemToken{"inventory_box", "ender_chest_box"},
				Color:       "§5",
				MaxRolls:    1,
				RequiresNBT: true,
				Delayable:   true,
				Label:       "a mythic box",
				Sound:       "ui.toast.challenge_complete",
			},
		},
	}
}

// Validate checks that the table satisfies its invariants.
// An empty tier list is valid; the firework bonus must always be well formed.
func (t Table) Validate() error {
	fw := t.Firework
	if fw.Probability <= 0 || fw.Probability > 1.0 {
		return fmt.Errorf("loot table: firework probability must be in (0, 1.0], got %f", fw.Probability)
	}
	if fw.Item == "" {
		return fmt.Errorf("loot table: firework item must not be empty")
	}
	if fw.Min < 1 || fw.Min > fw.Max {
		return fmt.Errorf("loot table: firework count range [%d, %d] is invalid", fw.Min, fw.Max)
	}

	for i, tier := range t.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("loot table: tier[%d] must have a name", i)
		}
		// names are matched case-insensitively, so the first match must be this tier
		if t.Tier(tier.Name) != &t.Tiers[i] {
			return fmt.Errorf("loot table: duplicate tier %q", tier.Name)
		}

		if tier.Probability <= 0 || tier.Probability > 1.0 {
			return fmt.Errorf("loot table: tier %q probability must be in (0, 1.0], got %f", tier.Name, tier.Probability)
		}
		if tier.MaxRolls < 1 {
			return fmt.Errorf("loot table: tier %q max rolls must be >= 1, got %d", tier.Name, tier.MaxRolls)
		}
		if len(tier.Candidates) == 0 {
			return fmt.Errorf("loot table: tier %q has no candidates", tier.Name)
		}
		for _, tok := range tier.Candidates {
			if _, ok := displayNames[tok]; !ok {
				return fmt.Errorf("loot table: tier %q candidate %q has no display name", tier.Name, tok)
			}
		}
	}
	return nil
}

// Tier returns the tier with the given name, or nil.
func (t Table) Tier(name string) *Tier {
	for i := range t.Tiers {
		if strings.EqualFold(t.Tiers[i].Name, name) {
			return &t.Tiers[i]
		}
	}
	return nil
}
