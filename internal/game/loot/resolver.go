package loot

import "strings"

// Drop is one tier that fired, with the tokens it rolled.
type Drop struct {
	Tier   *Tier
	Tokens []ItemToken
}

// Names resolves the rolled tokens to display names.
func (d Drop) Names() []string {
	names := make([]string, len(d.Tokens))
	for i, tok := range d.Tokens {
		names[i] = DisplayName(tok)
	}
	return names
}

// Message returns the tier-colored chat line announcing this drop.
func (d Drop) Message() string {
	return d.Tier.Color + "Congratulations! The villager dropped " + d.Tier.Label + ": " +
		strings.Join(d.Names(), NameSeparator) + ". Pick it up quickly!"
}

// Outcome is the result of one cascade.
type Outcome struct {
	Fireworks int    // stack size granted by the bonus, 0 if it did not fire
	Drops     []Drop // tiers that fired, in table order
}

// FireworkFired reports whether the bonus grant fired.
func (o Outcome) FireworkFired() bool { return o.Fireworks > 0 }

// Empty reports whether nothing fired, the bonus included.
func (o Outcome) Empty() bool { return !o.FireworkFired() && len(o.Drops) == 0 }

// Resolver rolls the cascade over a Table.
// Not safe for concurrent use when rng is not.
type Resolver struct {
	table Table
	rng   Rand
}

// NewResolver creates a resolver. A nil rng uses DefaultRand.
func NewResolver(table Table, rng Rand) *Resolver {
	if rng == nil {
		rng = DefaultRand()
	}
	return &Resolver{table: table, rng: rng}
}

// Table returns the table the resolver rolls against.
func (r *Resolver) Table() Table { return r.table }

// Roll evaluates the firework bonus and then every tier, each as an
// independent trial. Tiers requiring NBT are skipped without consuming a
// draw when nbtEnabled is false.
func (r *Resolver) Roll(nbtEnabled bool) Outcome {
	var out Outcome

	fw := r.table.Firework
	if r.chance(fw.Probability) {
		out.Fireworks = fw.Min
		if fw.Max > fw.Min {
			out.Fireworks += r.rng.IntN(fw.Max - fw.Min + 1)
		}
	}

	for i := range r.table.Tiers {
		tier := &r.table.Tiers[i]
		if tier.RequiresNBT && !nbtEnabled {
			continue
		}
		if !r.chance(tier.Probability) {
			continue
		}

		rolls := 1
		if tier.MaxRolls > 1 {
			rolls = r.rng.IntN(tier.MaxRolls) + 1
		}

		tokens := make([]ItemToken, 0, rolls)
		for range rolls {
			tokens = append(tokens, tier.Candidates[r.rng.IntN(len(tier.Candidates))])
		}
		out.Drops = append(out.Drops, Drop{Tier: tier, Tokens: tokens})
	}

	return out
}

func (r *Resolver) chance(p float64) bool {
	if p >= 1.0 {
		return true
	}
	return r.rng.Float64() < p
}
