package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/villagerloot/internal/model"
)

func newTestPlayer(t *testing.T, id, name string, x, y, z float64) *model.Player {
	t.Helper()
	p, err := model.NewPlayer(id, name, model.NewLocation(x, y, z), 0)
	require.NoError(t, err)
	return p
}

func TestWorld_AddRemovePlayer(t *testing.T) {
	w := New()
	p := newTestPlayer(t, "1", "Steve", 0, 0, 0)

	w.AddPlayer(p)
	assert.Equal(t, 1, w.PlayerCount())
	assert.Same(t, p, w.GetPlayer("1"))

	// re-adding the same id replaces, does not duplicate
	p2 := newTestPlayer(t, "1", "Steve", 5, 5, 5)
	w.AddPlayer(p2)
	assert.Equal(t, 1, w.PlayerCount())
	assert.Same(t, p2, w.GetPlayer("1"))

	assert.True(t, w.RemovePlayer("1"))
	assert.False(t, w.RemovePlayer("1"))
	assert.Nil(t, w.GetPlayer("1"))
	assert.Equal(t, 0, w.PlayerCount())
}

func TestWorld_FindPlayerByName(t *testing.T) {
	w := New()
	w.AddPlayer(newTestPlayer(t, "1", "Steve", 0, 0, 0))

	assert.NotNil(t, w.FindPlayerByName("steve"))
	assert.NotNil(t, w.FindPlayerByName("STEVE"))
	assert.Nil(t, w.FindPlayerByName("Alex"))
}

func TestWorld_Nearest(t *testing.T) {
	w := New()
	assert.Nil(t, w.Nearest(model.NewLocation(0, 0, 0), ""), "empty world")

	far := newTestPlayer(t, "1", "Far", 100, 0, 0)
	near := newTestPlayer(t, "2", "Near", 3, 4, 0)
	nether := newTestPlayer(t, "3", "Nether", 1, 0, 0)
	nether.SetDimension("minecraft:nether")

	w.AddPlayer(far)
	w.AddPlayer(near)
	w.AddPlayer(nether)

	assert.Same(t, near, w.Nearest(model.NewLocation(0, 0, 0), model.DimensionOverworld))
	assert.Same(t, near, w.Nearest(model.NewLocation(0, 0, 0), ""), "empty dimension means overworld")
	assert.Same(t, nether, w.Nearest(model.NewLocation(0, 0, 0), "minecraft:nether"))
	assert.Nil(t, w.Nearest(model.NewLocation(0, 0, 0), "minecraft:the_end"))
}

func TestWorld_Nearest_TieGoesToFirstJoined(t *testing.T) {
	w := New()
	first := newTestPlayer(t, "1", "First", 5, 0, 0)
	second := newTestPlayer(t, "2", "Second", -5, 0, 0)
	w.AddPlayer(first)
	w.AddPlayer(second)

	assert.Same(t, first, w.Nearest(model.NewLocation(0, 0, 0), ""))
}

func TestWorld_ForEachPlayer_EarlyStop(t *testing.T) {
	w := New()
	for i, name := range []string{"a", "b", "c"} {
		w.AddPlayer(newTestPlayer(t, string(rune('1'+i)), name, 0, 0, 0))
	}

	var seen []string
	w.ForEachPlayer(func(p *model.Player) bool {
		seen = append(seen, p.Name())
		return len(seen) < 2
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}
