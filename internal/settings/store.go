// Package settings owns the villager loot configuration flags.
//
// Flags live in persistent key/value storage and are cached in memory after
// the first successful Load. Until then every read retries the load, so a
// storage outage at startup does not pin the defaults. Writes go to storage
// first; the cache changes only once the write succeeded.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Storage keys. Absent keys mean the documented defaults.
const (
	KeyBabyDropEnabled  = "villagerloot:babyDropEnabled"
	KeyBabyDropApplyAll = "villagerloot:babyDropApplyAll"
	KeyNBTDropEnabled   = "villagerloot:nbtDropEnabled"
	// PlayerKeyPrefix prefixes per-player baby drop overrides.
	PlayerKeyPrefix = "villagerloot:babyDrop:"
)

// ErrStorage wraps every failure of the underlying Storage.
var ErrStorage = errors.New("settings storage failure")

// Storage is persistent boolean key/value storage.
type Storage interface {
	// LoadFlag returns the stored value; ok is false when the key is absent.
	LoadFlag(ctx context.Context, key string) (value bool, ok bool, err error)
	// SaveFlag writes a value, overwriting any previous one.
	SaveFlag(ctx context.Context, key string, value bool) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Flags is the world-wide configuration.
type Flags struct {
	// BabyDropApplyAll selects per-player baby drop settings (true)
	// or the single world flag below (false).
	BabyDropApplyAll bool
	// BabyDropEnabledWorld is consulted only when BabyDropApplyAll is false.
	BabyDropEnabledWorld bool
	NBTDropEnabled       bool
}

// DefaultFlags returns the values used for absent keys.
func DefaultFlags() Flags {
	return Flags{
		BabyDropApplyAll:     true,
		BabyDropEnabledWorld: true,
		NBTDropEnabled:       true,
	}
}

// PlayerKey returns the storage key of a player's baby drop override.
func PlayerKey(playerID string) string {
	return PlayerKeyPrefix + playerID
}

// Store caches Flags and per-player overrides on top of a Storage.
type Store struct {
	storage Storage

	mu      sync.RWMutex
	loaded  bool
	flags   Flags
	players map[string]bool // playerID → baby drop enabled, loaded on demand
}

// NewStore creates a Store. Reads load the flags on first use; while storage
// is unreachable they see DefaultFlags.
func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		flags:   DefaultFlags(),
		players: make(map[string]bool),
	}
}

// Load reads the world flags from storage once. Later calls are no-ops.
// On error the defaults stay in effect and the next call retries.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	flags := DefaultFlags()
	fields := []struct {
		key string
		dst *bool
	}{
		{KeyBabyDropApplyAll, &flags.BabyDropApplyAll},
		{KeyBabyDropEnabled, &flags.BabyDropEnabledWorld},
		{KeyNBTDropEnabled, &flags.NBTDropEnabled},
	}
	for _, f := range fields {
		v, ok, err := s.storage.LoadFlag(ctx, f.key)
		if err != nil {
			return fmt.Errorf("%w: loading %s: %w", ErrStorage, f.key, err)
		}
		if ok {
			*f.dst = v
		}
	}

	s.flags = flags
	s.loaded = true
	slog.Info("loot settings loaded",
		"applyAll", flags.BabyDropApplyAll,
		"babyDropWorld", flags.BabyDropEnabledWorld,
		"nbtDrop", flags.NBTDropEnabled)
	return nil
}

// ensureLoaded retries Load until it succeeds once.
func (s *Store) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	if err := s.Load(ctx); err != nil {
		slog.Warn("settings not loaded, using cached values", "error", err)
	}
}

// Flags returns a copy of the current world flags.
func (s *Store) Flags(ctx context.Context) Flags {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// NBTDropEnabled reports whether the NBT tiers may fire.
func (s *Store) NBTDropEnabled(ctx context.Context) bool {
	return s.Flags(ctx).NBTDropEnabled
}

// BabyDropEnabled resolves whether a baby victim drops loot for playerID.
// In apply-all mode the player's override is used (default true); otherwise
// the world flag. A storage error falls back to the default and is logged.
func (s *Store) BabyDropEnabled(ctx context.Context, playerID string) bool {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	flags := s.flags
	v, cached := s.players[playerID]
	s.mu.RUnlock()

	if !flags.BabyDropApplyAll {
		return flags.BabyDropEnabledWorld
	}
	if cached {
		return v
	}

	v, ok, err := s.storage.LoadFlag(ctx, PlayerKey(playerID))
	if err != nil {
		slog.Error("loading player baby drop setting",
			"player", playerID,
			"error", err)
		return true
	}
	if !ok {
		v = true
	}

	s.mu.Lock()
	// apply-all may have been switched off meanwhile; don't resurrect the cache
	if s.flags.BabyDropApplyAll {
		s.players[playerID] = v
	}
	s.mu.Unlock()
	return v
}

// SetPlayerBabyDrop persists a player's override. Only meaningful in apply-all mode.
func (s *Store) SetPlayerBabyDrop(ctx context.Context, playerID string, enabled bool) error {
	if strings.TrimSpace(playerID) == "" {
		return fmt.Errorf("empty player id")
	}
	if err := s.storage.SaveFlag(ctx, PlayerKey(playerID), enabled); err != nil {
		return fmt.Errorf("%w: saving baby drop for player %s: %w", ErrStorage, playerID, err)
	}

	s.mu.Lock()
	s.players[playerID] = enabled
	s.mu.Unlock()
	return nil
}

// SetWorldBabyDrop persists the world-wide baby drop flag.
func (s *Store) SetWorldBabyDrop(ctx context.Context, enabled bool) error {
	if err := s.storage.SaveFlag(ctx, KeyBabyDropEnabled, enabled); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrStorage, KeyBabyDropEnabled, err)
	}

	s.mu.Lock()
	s.flags.BabyDropEnabledWorld = enabled
	s.mu.Unlock()
	return nil
}

// SetNBTDrop persists the NBT tier flag.
func (s *Store) SetNBTDrop(ctx context.Context, enabled bool) error {
	if err := s.storage.SaveFlag(ctx, KeyNBTDropEnabled, enabled); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrStorage, KeyNBTDropEnabled, err)
	}

	s.mu.Lock()
	s.flags.NBTDropEnabled = enabled
	s.mu.Unlock()
	return nil
}

// SetApplyAll persists the apply-all mode. Switching it off first drops
// every per-player override, in storage and in memory; if that fails the
// mode is left unchanged.
func (s *Store) SetApplyAll(ctx context.Context, applyAll bool) error {
	s.ensureLoaded(ctx)

	if !applyAll {
		n, err := s.storage.DeletePrefix(ctx, PlayerKeyPrefix)
		if err != nil {
			return fmt.Errorf("%w: clearing player overrides: %w", ErrStorage, err)
		}
		s.mu.Lock()
		clear(s.players)
		s.mu.Unlock()
		if n > 0 {
			slog.Info("cleared player baby drop overrides", "count", n)
		}
	}

	if err := s.storage.SaveFlag(ctx, KeyBabyDropApplyAll, applyAll); err != nil {
		return fmt.Errorf("%w: saving %s: %w", ErrStorage, KeyBabyDropApplyAll, err)
	}

	s.mu.Lock()
	s.flags.BabyDropApplyAll = applyAll
	s.mu.Unlock()
	return nil
}
