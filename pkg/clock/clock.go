// Package clock provides the time source used by the session core.
// Injecting a Clock keeps phase arithmetic deterministic in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the sole provider of "now" for the session core.
type Clock interface {
	// Now returns the current wall-clock time in UTC.
	Now() time.Time
}

// System is a Clock backed by the system clock.
type System struct{}

// NewSystem creates a system clock.
func NewSystem() System {
	return System{}
}

// Now returns the current time in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually advanced Clock for tests.
// It is safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

// Now returns the frozen time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

// Verify interface compliance.
var (
	_ Clock = System{}
	_ Clock = (*Fake)(nil)
)
