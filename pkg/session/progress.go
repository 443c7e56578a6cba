package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/focusmate/session-service/pkg/phase"
)

// effectiveNow picks the instant phase arithmetic runs against: the pause
// instant for PAUSED sessions, so derived values stay frozen, otherwise the
// clock's now.
func (c *Core) effectiveNow(s *Session) time.Time {
	if s.Status == StatusPaused && s.PausedAt != nil {
		return *s.PausedAt
	}
	return c.clock.Now()
}

// phaseProgress runs the phase engine over a session snapshot.
func (c *Core) phaseProgress(s *Session) phase.Progress {
	return phase.Compute(phase.Input{
		PhaseStart:    s.CurrentPhaseStartTime,
		BudgetMinutes: s.CurrentPhaseMinutes,
		SessionStart:  s.StartTime,
		WorkPhase:     s.CurrentPhase == PhaseWork,
	}, c.effectiveNow(s))
}

// Progress composes the session, the phase engine's derived timing, and the
// active roster into the polling projection. The caller must be the owner
// or an active participant.
func (c *Core) Progress(ctx context.Context, sessionID, actorID uuid.UUID) (*Progress, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		snapshot Session
		ids      []uuid.UUID
	)
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, tx, s, actorUsername, actorID); err != nil {
			return err
		}
		snapshot = *s
		ids, err = activeParticipantIDs(ctx, tx, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Completion state lives in the task service; query it outside the
	// transaction and degrade to an empty list if it is unreachable.
	completed, err := c.tasks.Completed(ctx, snapshot.TaskIDs)
	if err != nil {
		c.log.Warn("task completion lookup failed", "session_id", sessionID, "error", err)
		completed = nil
	}
	if completed == nil {
		completed = []uuid.UUID{}
	}

	p := c.phaseProgress(&snapshot)
	return &Progress{
		ID:                       snapshot.ID,
		Name:                     snapshot.Name,
		Status:                   snapshot.Status,
		CurrentPhase:             snapshot.CurrentPhase,
		StartTime:                snapshot.StartTime,
		CurrentPhaseStartTime:    snapshot.CurrentPhaseStartTime,
		ElapsedTime:              Duration(p.Elapsed),
		TimeRemainingInPhase:     Duration(p.Remaining),
		CurrentPhaseMinutes:      snapshot.CurrentPhaseMinutes,
		TasksCompleted:           len(completed),
		TotalTasks:               len(snapshot.TaskIDs),
		WorkSessionsCompleted:    snapshot.WorkSessionsCompleted,
		ActiveParticipants:       ids,
		CompletedTaskIDs:         completed,
		WaitingForBreakSelection: p.WaitingForBreakSelection,
	}, nil
}

// BreakOptionsFor surfaces the two break durations and current phase timing
// for the break-selection prompt. The caller must be the owner or an active
// participant.
func (c *Core) BreakOptionsFor(ctx context.Context, sessionID, actorID uuid.UUID) (*BreakOptions, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var snapshot Session
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, tx, s, actorUsername, actorID); err != nil {
			return err
		}
		snapshot = *s
		return nil
	})
	if err != nil {
		return nil, err
	}

	p := c.phaseProgress(&snapshot)
	return &BreakOptions{
		ID:                    snapshot.ID,
		Name:                  snapshot.Name,
		Tasks:                 len(snapshot.TaskIDs),
		CurrentPhase:          snapshot.CurrentPhase,
		WorkSessionsCompleted: snapshot.WorkSessionsCompleted,
		ShortBreakMinutes:     snapshot.ShortBreakMinutes,
		LongBreakMinutes:      snapshot.LongBreakMinutes,
		PhaseStartTime:        snapshot.CurrentPhaseStartTime,
		TimeRemaining:         Duration(p.Remaining),
	}, nil
}
