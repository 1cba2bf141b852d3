// Package form holds the per-form submission guard.
package form

import (
	"sync/atomic"

	"electoral-app/internal/common"
)

// Guard is the in-flight flag of one form. While a submission holds it the
// form's submit control is disabled.
type Guard struct {
	name     string
	inFlight atomic.Bool
}

// NewGuard creates a guard for the named form
func NewGuard(name string) *Guard {
	return &Guard{name: name}
}

// Name returns the form name
func (g *Guard) Name() string {
	return g.name
}

// TryAcquire marks the form as submitting. It fails with ErrBusy when a
// submission is already in flight.
func (g *Guard) TryAcquire() error {
	if !g.inFlight.CompareAndSwap(false, true) {
		return common.NewError(common.ErrBusy, "ya hay un envío en curso")
	}
	return nil
}

// Release re-enables the form
func (g *Guard) Release() {
	g.inFlight.Store(false)
}

// Busy reports whether a submission is in flight
func (g *Guard) Busy() bool {
	return g.inFlight.Load()
}

// Run executes fn while holding the guard. The guard is released when fn
// returns, whatever the outcome.
func (g *Guard) Run(fn func() error) error {
	if err := g.TryAcquire(); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}
