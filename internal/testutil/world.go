package testutil

import (
	"testing"

	"github.com/udisondev/villagerloot/internal/model"
	"github.com/udisondev/villagerloot/internal/world"
)

// NewWorld creates a roster with players joined in the given order.
func NewWorld(t testing.TB, players ...*model.Player) *world.World {
	t.Helper()
	w := world.New()
	for _, p := range players {
		w.AddPlayer(p)
	}
	return w
}
