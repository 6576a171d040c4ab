// Package sched runs one-shot delayed tasks.
package sched

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Task is a named closure. Run must only touch values captured when the
// task was built.
type Task struct {
	Name string
	Run  func()
}

// Scheduler runs tasks after a delay. There is no cancellation and no
// ordering guarantee between tasks scheduled by different callers.
type Scheduler interface {
	After(delay time.Duration, task Task)
}

// Timers schedules tasks on time.AfterFunc goroutines.
type Timers struct {
	wg sync.WaitGroup
}

// NewTimers creates a timer-backed Scheduler.
func NewTimers() *Timers {
	return &Timers{}
}

// After schedules task. A delay <= 0 still runs it asynchronously.
func (s *Timers) After(delay time.Duration, task Task) {
	s.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("scheduled task panicked",
					"task", task.Name,
					"panic", r)
			}
		}()
		task.Run()
	})
}

// Wait blocks until every scheduled task finished or ctx is done.
func (s *Timers) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manual is a Scheduler driven by Advance, for deterministic tests.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []manualTask
}

type manualTask struct {
	due  time.Duration
	seq  int
	task Task
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After queues task to run once virtual time reaches now+delay.
func (m *Manual) After(delay time.Duration, task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = append(m.pending, manualTask{due: m.now + delay, seq: m.seq, task: task})
}

// Pending returns names of tasks not yet run, in due order.
func (m *Manual) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sortLocked()
	names := make([]string, len(m.pending))
	for i, t := range m.pending {
		names[i] = t.task.Name
	}
	return names
}

// Advance moves virtual time forward and runs every task that became due,
// in due order, outside the lock.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	m.sortLocked()

	var due []Task
	i := 0
	for ; i < len(m.pending) && m.pending[i].due <= m.now; i++ {
		due = append(due, m.pending[i].task)
	}
	m.pending = m.pending[i:]
	m.mu.Unlock()

	for _, t := range due {
		t.Run()
	}
	return len(due)
}

func (m *Manual) sortLocked() {
	sort.SliceStable(m.pending, func(a, b int) bool {
		if m.pending[a].due != m.pending[b].due {
			return m.pending[a].due < m.pending[b].due
		}
		return m.pending[a].seq < m.pending[b].seq
	})
}
