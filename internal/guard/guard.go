// Package guard serializes named tasks: at most one holder per task name at
// a time, with non-blocking acquisition.
package guard

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when the named task is already running.
type ErrBusy struct {
	Task string
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("task %q is already running", e.Task)
}

// Guard tracks in-flight task names.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]bool
	log      zerolog.Logger
}

func New(log zerolog.Logger) *Guard {
	return &Guard{
		inFlight: make(map[string]bool),
		log:      log.With().Str("component", "guard").Logger(),
	}
}

// Acquire claims the named task. It never blocks: if the task is already
// held it returns ErrBusy immediately.
func (g *Guard) Acquire(task string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[task] {
		return &ErrBusy{Task: task}
	}
	g.inFlight[task] = true
	return nil
}

// Release frees the named task. Releasing an unheld task is a logged no-op.
func (g *Guard) Release(task string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight[task] {
		g.log.Warn().Str("task", task).Msg("Release of task that is not held")
		return
	}
	delete(g.inFlight, task)
}

// Running reports whether the named task is currently held.
func (g *Guard) Running(task string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[task]
}

// Do runs fn under the guard, releasing even when fn panics.
func (g *Guard) Do(task string, fn func() error) error {
	if err := g.Acquire(task); err != nil {
		return err
	}
	defer g.Release(task)
	return fn()
}
