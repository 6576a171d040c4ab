// Package host is the capability surface of the game engine. The loot
// service never touches engine state directly; it asks the host to run
// commands.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/udisondev/villagerloot/internal/model"
)

// ErrCommandFailed is returned when the host reports a non-zero status.
var ErrCommandFailed = errors.New("host command failed")

// Host is what the loot service needs from the game engine.
type Host interface {
	// SpawnLoot runs the engine's standard death loot table at loc.
	SpawnLoot(ctx context.Context, dim string, loc model.Location, table string) error
	// LoadStructure materializes a named prefab at loc.
	LoadStructure(ctx context.Context, dim string, name string, loc model.Location) error
	// GiveItem puts a stack of item into the player's inventory.
	GiveItem(ctx context.Context, player string, item string, count int) error
	// Tell sends a chat line to one player.
	Tell(ctx context.Context, player string, text string) error
	// PlaySound plays a sound cue to one player.
	PlaySound(ctx context.Context, player string, sound string) error
	// GameRule reads a boolean game rule.
	GameRule(ctx context.Context, rule string) (bool, error)
	// SetGameRule writes a boolean game rule.
	SetGameRule(ctx context.Context, rule string, value bool) error
}

// Result is the host's answer to one command line.
type Result struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// Err converts a non-zero status into an error wrapping ErrCommandFailed.
func (r Result) Err(commandLine string) error {
	if r.StatusCode == 0 {
		return nil
	}
	return fmt.Errorf("%w: %q: status %d: %s", ErrCommandFailed, commandLine, r.StatusCode, r.StatusMessage)
}

// Runner executes a single command line on the host.
type Runner interface {
	Run(ctx context.Context, commandLine string) (Result, error)
}
