package world

import (
	"strings"
	"sync"

	"github.com/udisondev/villagerloot/internal/model"
)

// World tracks players currently online in the host world.
// Enumeration order is join order; Nearest breaks distance ties by it.
type World struct {
	mu      sync.RWMutex
	players map[string]*model.Player // id → player
	order   []string                 // join order of ids
}

// New creates an empty World.
func New() *World {
	return &World{
		players: make(map[string]*model.Player, 16),
	}
}

// AddPlayer registers a player, replacing any entry with the same id.
// A replaced player keeps its original position in enumeration order.
func (w *World) AddPlayer(p *model.Player) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.players[p.ID()]; !ok {
		w.order = append(w.order, p.ID())
	}
	w.players[p.ID()] = p
}

// RemovePlayer unregisters a player. Returns false if it was not online.
func (w *World) RemovePlayer(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.players[id]; !ok {
		return false
	}
	delete(w.players, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// GetPlayer returns the online player with the given id, or nil.
func (w *World) GetPlayer(id string) *model.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.players[id]
}

// FindPlayerByName finds an online player by name (case-insensitive).
func (w *World) FindPlayerByName(name string) *model.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, id := range w.order {
		if p := w.players[id]; strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// ForEachPlayer iterates over online players in join order.
// Iteration stops when fn returns false.
func (w *World) ForEachPlayer(fn func(*model.Player) bool) {
	for _, p := range w.snapshot() {
		if !fn(p) {
			return
		}
	}
}

// PlayerCount returns number of online players.
func (w *World) PlayerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}

// Nearest returns the online player in dimension dim closest to loc,
// or nil if nobody is there. Ties go to the player that joined first.
func (w *World) Nearest(loc model.Location, dim string) *model.Player {
	if dim == "" {
		dim = model.DimensionOverworld
	}

	var (
		best     *model.Player
		bestDist float64
	)
	w.ForEachPlayer(func(p *model.Player) bool {
		if p.Dimension() != dim {
			return true
		}
		d := p.Location().DistanceSquared(loc)
		if best == nil || d < bestDist {
			best = p
			bestDist = d
		}
		return true
	})
	return best
}

// snapshot copies the player list so callbacks run without the lock held.
func (w *World) snapshot() []*model.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*model.Player, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.players[id])
	}
	return out
}
