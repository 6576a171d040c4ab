package testutil

import (
	"testing"

	"github.com/udisondev/villagerloot/internal/model"
)

// Access levels used by fixtures; they match the host permission levels.
const (
	LevelMember   int32 = 1
	LevelOperator int32 = 2
)

// NewPlayer creates a member player at loc, failing the test on error.
func NewPlayer(t testing.TB, id, name string, loc model.Location) *model.Player {
	t.Helper()
	p, err := model.NewPlayer(id, name, loc, LevelMember)
	if err != nil {
		t.Fatalf("NewPlayer(%q): %v", id, err)
	}
	return p
}

// NewOperator creates an operator player at the origin.
func NewOperator(t testing.TB, id, name string) *model.Player {
	t.Helper()
	p := NewPlayer(t, id, name, model.Location{})
	p.SetAccessLevel(LevelOperator)
	return p
}
