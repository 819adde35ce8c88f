// Package editguard tracks unsaved changes of a transient edit surface and gates closing it.
package editguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrSaveInProgress = errors.New("a save is already in progress")

type State int

const (
	Clean State = iota
	Dirty
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is the answer to a close request.
type Decision int

const (
	// Proceed means the surface can be closed right away.
	Proceed Decision = iota
	// NeedsConfirmation means unsaved changes would be lost. Call Confirm or KeepEditing.
	NeedsConfirmation
)

func (d Decision) String() string {
	if d == NeedsConfirmation {
		return "needs confirmation"
	}
	return "proceed"
}

// SaveFunc persists value.
type SaveFunc func(ctx context.Context, value string) error

// Guard is the state machine of one edit surface. It never closes on its own.
type Guard struct {
	save SaveFunc

	mu         sync.Mutex
	state      State
	baseline   string
	value      string
	err        error
	saving     bool
	confirming bool
}

// New returns a clean guard whose saved value is baseline.
func New(baseline string, save SaveFunc) *Guard {
	return &Guard{
		save:     save,
		baseline: baseline,
		value:    baseline,
	}
}

// Edit records a change of the tracked field.
func (g *Guard) Edit(value string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.value = value
	g.state = Dirty
	g.confirming = false
}

// Save persists the current value. The guard becomes clean only when nothing was edited
// while the save was running; on failure it stays dirty and keeps the error.
func (g *Guard) Save(ctx context.Context) error {
	g.mu.Lock()
	if g.state == Clean {
		g.mu.Unlock()
		return nil
	}
	if g.saving {
		g.mu.Unlock()
		return ErrSaveInProgress
	}
	g.saving = true
	value := g.value
	g.mu.Unlock()

	err := g.save(ctx, value)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.saving = false
	if err != nil {
		g.err = fmt.Errorf("save() > %w", err)
		slog.Default().Debug("edit guard save failed", "error", err)
		return g.err
	}
	g.err = nil
	g.baseline = value
	if g.value == value {
		g.state = Clean
	}
	return nil
}

// RequestClose asks whether the surface may close.
func (g *Guard) RequestClose() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Clean {
		return Proceed
	}
	g.confirming = true
	return NeedsConfirmation
}

// Confirm grants a pending close request. Unsaved changes are discarded and the guard becomes
// clean. It reports whether the surface may close now.
func (g *Guard) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.confirming {
		return g.state == Clean
	}
	g.confirming = false
	g.value = g.baseline
	g.state = Clean
	g.err = nil
	return true
}

// KeepEditing declines a pending close request.
func (g *Guard) KeepEditing() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirming = false
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Value returns the value currently shown on the surface.
func (g *Guard) Value() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Err returns the error of the last failed save, if it was not followed by a successful one.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// AwaitingConfirmation reports whether a close request is waiting for Confirm or KeepEditing.
func (g *Guard) AwaitingConfirmation() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confirming
}
