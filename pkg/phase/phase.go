// Package phase computes derived timing for a session's current pomodoro
// phase. It is pure: callers pass a snapshot of the session's timing fields
// and a fixed "now", and no state is mutated. There is no server-driven
// ticking anywhere in the service; everything time-related is derived here
// on demand.
package phase

import "time"

// Input is the snapshot of session timing fields the engine works from.
type Input struct {
	// PhaseStart is the instant the current phase began.
	PhaseStart time.Time

	// BudgetMinutes is the duration budgeted for the current phase.
	BudgetMinutes int

	// SessionStart is the instant the session started; zero if unset.
	SessionStart time.Time

	// WorkPhase is true when the current phase is a work block.
	WorkPhase bool
}

// Progress holds the derived timing values for a phase.
type Progress struct {
	// Elapsed is the time spent in the current phase, never negative.
	Elapsed time.Duration

	// Remaining is the unspent phase budget, never negative.
	Remaining time.Duration

	// Overtime is true once Elapsed meets or exceeds the budget.
	Overtime bool

	// WaitingForBreakSelection is true when a work phase has run past its
	// budget: the client's cue to start a break or skip it.
	WaitingForBreakSelection bool

	// TotalElapsed is the time since the session started, zero if the
	// session has no start instant.
	TotalElapsed time.Duration
}

// Compute derives phase progress from a snapshot at the given instant.
// For paused sessions the caller passes the pause instant as now, which
// freezes the derived values at the moment the pause took effect.
func Compute(in Input, now time.Time) Progress {
	budget := time.Duration(in.BudgetMinutes) * time.Minute

	elapsed := now.Sub(in.PhaseStart)
	if elapsed < 0 {
		elapsed = 0
	}

	remaining := budget - elapsed
	if remaining < 0 {
		remaining = 0
	}

	overtime := elapsed >= budget

	var total time.Duration
	if !in.SessionStart.IsZero() {
		total = now.Sub(in.SessionStart)
		if total < 0 {
			total = 0
		}
	}

	return Progress{
		Elapsed:                  elapsed,
		Remaining:                remaining,
		Overtime:                 overtime,
		WaitingForBreakSelection: in.WorkPhase && overtime,
		TotalElapsed:             total,
	}
}
