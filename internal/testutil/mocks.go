package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/udisondev/villagerloot/internal/host"
	"github.com/udisondev/villagerloot/internal/model"
)

// Call is one recorded host capability invocation.
type Call struct {
	Method string
	Player string
	Arg    string // structure name, item, sound, text, rule or loot table
	Count  int
	Value  bool
	Loc    model.Location
	Dim    string
}

// MockHost records every capability call for unit tests.
// Methods listed in Fail return an error instead of recording success.
type MockHost struct {
	mu    sync.Mutex
	calls []Call

	Rules map[string]bool   // game rule values
	Fail  map[string]error  // method name → error to return
	Panic map[string]string // method name → panic value
}

var _ host.Host = (*MockHost)(nil)

// NewMockHost creates a MockHost with sendcommandfeedback on.
func NewMockHost() *MockHost {
	return &MockHost{
		Rules: map[string]bool{"sendcommandfeedback": true},
		Fail:  make(map[string]error),
		Panic: make(map[string]string),
	}
}

func (m *MockHost) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
	if p, ok := m.Panic[c.Method]; ok {
		panic(p)
	}
	return m.Fail[c.Method]
}

func (m *MockHost) SpawnLoot(_ context.Context, dim string, loc model.Location, table string) error {
	return m.record(Call{Method: "SpawnLoot", Arg: table, Loc: loc, Dim: dim})
}

func (m *MockHost) LoadStructure(_ context.Context, dim string, name string, loc model.Location) error {
	return m.record(Call{Method: "LoadStructure", Arg: name, Loc: loc, Dim: dim})
}

func (m *MockHost) GiveItem(_ context.Context, player string, item string, count int) error {
	return m.record(Call{Method: "GiveItem", Player: player, Arg: item, Count: count})
}

func (m *MockHost) Tell(_ context.Context, player string, text string) error {
	return m.record(Call{Method: "Tell", Player: player, Arg: text})
}

func (m *MockHost) PlaySound(_ context.Context, player string, sound string) error {
	return m.record(Call{Method: "PlaySound", Player: player, Arg: sound})
}

func (m *MockHost) GameRule(_ context.Context, rule string) (bool, error) {
	if err := m.record(Call{Method: "GameRule", Arg: rule}); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rules[rule], nil
}

func (m *MockHost) SetGameRule(_ context.Context, rule string, value bool) error {
	if err := m.record(Call{Method: "SetGameRule", Arg: rule, Value: value}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rules[rule] = value
	return nil
}

// Calls returns a copy of all recorded calls.
func (m *MockHost) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsTo returns recorded calls of one method.
func (m *MockHost) CallsTo(method string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the method names of recorded calls, in order.
func (m *MockHost) Methods() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Messages returns the text of every Tell call.
func (m *MockHost) Messages() []string {
	var out []string
	for _, c := range m.CallsTo("Tell") {
		out = append(out, c.Arg)
	}
	return out
}

// Reset forgets recorded calls.
func (m *MockHost) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// String renders calls one per line, handy in failure output.
func (m *MockHost) String() string {
	var b strings.Builder
	for _, c := range m.Calls() {
		fmt.Fprintf(&b, "%s(%s %s %d %v)\n", c.Method, c.Player, c.Arg, c.Count, c.Value)
	}
	return b.String()
}
