package model

import (
	"errors"
	"strings"
	"sync"
)

// ErrEmptyPlayerID is returned when a player is created without host identity.
var ErrEmptyPlayerID = errors.New("player id must not be empty")

// Player is an online player as reported by the host.
// Position and access level change over the session; identity does not.
type Player struct {
	id   string // host-issued unique id, stable across sessions
	name string

	mu          sync.RWMutex
	location    Location
	dimension   string
	accessLevel int32
}

// NewPlayer creates a player snapshot.
func NewPlayer(id, name string, loc Location, accessLevel int32) (*Player, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyPlayerID
	}
	return &Player{
		id:          id,
		name:        name,
		location:    loc,
		dimension:   DimensionOverworld,
		accessLevel: accessLevel,
	}, nil
}

// ID returns the host-issued player id.
func (p *Player) ID() string { return p.id }

// Name returns the display name used in command targets.
func (p *Player) Name() string { return p.name }

// Location returns the last reported position.
func (p *Player) Location() Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.location
}

// SetLocation updates the position.
func (p *Player) SetLocation(loc Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = loc
}

// Dimension returns the dimension id the player is in.
func (p *Player) Dimension() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dimension
}

// SetDimension updates the dimension id. Empty means overworld.
func (p *Player) SetDimension(dim string) {
	if dim == "" {
		dim = DimensionOverworld
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dimension = dim
}

// AccessLevel returns the player's permission level.
func (p *Player) AccessLevel() int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accessLevel
}

// SetAccessLevel sets the player's permission level.
func (p *Player) SetAccessLevel(level int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessLevel = level
}
