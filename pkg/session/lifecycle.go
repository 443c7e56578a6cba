package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pause freezes an ACTIVE session. The pause instant is stored so that the
// phase timer can be rebased on resume with the remaining time preserved.
func (c *Core) Pause(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var resp *Response

	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := c.requireOwner(s, actorUsername); err != nil {
			return err
		}
		if s.Status != StatusActive {
			return fmt.Errorf("%w: cannot pause a session in state %s", ErrInvalidData, s.Status)
		}

		s.Status = StatusPaused
		s.PausedAt = &now
		s.UpdatedAt = now
		if err := tx.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		ids, err := activeParticipantIDs(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		resp = toResponse(s, ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("session paused", "session_id", sessionID)
	return resp, nil
}

// Resume reactivates a PAUSED session. The phase start is rebased so the
// remaining time observed at pause is preserved across the gap.
func (c *Core) Resume(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var resp *Response

	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := c.requireOwner(s, actorUsername); err != nil {
			return err
		}
		if s.Status != StatusPaused {
			return fmt.Errorf("%w: cannot resume a session in state %s", ErrInvalidData, s.Status)
		}

		budget := time.Duration(s.CurrentPhaseMinutes) * time.Minute
		remaining := budget
		if s.PausedAt != nil {
			elapsed := s.PausedAt.Sub(s.CurrentPhaseStartTime)
			if elapsed < 0 {
				elapsed = 0
			}
			remaining = budget - elapsed
			if remaining < 0 {
				remaining = 0
			}
		}

		// Rebase so that Compute(now) yields exactly the frozen remaining.
		s.CurrentPhaseStartTime = now.Add(remaining - budget)
		s.Status = StatusActive
		s.PausedAt = nil
		s.UpdatedAt = now
		if err := tx.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		ids, err := activeParticipantIDs(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		resp = toResponse(s, ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("session resumed", "session_id", sessionID)
	return resp, nil
}

// End completes an ACTIVE or PAUSED session: stamps the end time, computes
// the total duration, closes every open participant stint, and forwards the
// optional task completion report to the task service.
func (c *Core) End(ctx context.Context, sessionID, actorID uuid.UUID, req EndRequest) (*Summary, error) {
	if err := validateEnd(req); err != nil {
		return nil, err
	}

	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var summary *Summary

	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := c.requireOwner(s, actorUsername); err != nil {
			return err
		}
		if s.Status.Terminal() {
			return fmt.Errorf("%w: session already ended", ErrInvalidData)
		}
		if s.Status != StatusActive && s.Status != StatusPaused {
			return fmt.Errorf("%w: cannot end a session in state %s", ErrInvalidData, s.Status)
		}

		total := int(now.Sub(s.StartTime) / time.Minute)
		if total < 0 {
			total = 0
		}

		s.Status = StatusCompleted
		s.EndTime = &now
		s.TotalDurationMinutes = &total
		s.PausedAt = nil
		s.UpdatedAt = now
		if err := tx.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		participants, err := tx.ActiveParticipants(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		for _, p := range participants {
			p.TotalSessionTimeMinutes += stintMinutes(p, now)
			p.CurrentlyInSession = false
			p.CurrentStintStart = nil
			if err := tx.SaveParticipant(ctx, p); err != nil {
				return fmt.Errorf("saving participant: %w", err)
			}
		}

		summary = &Summary{
			ID:                    s.ID,
			Name:                  s.Name,
			Status:                s.Status,
			StartTime:             s.StartTime,
			EndTime:               s.EndTime,
			TotalDurationMinutes:  total,
			WorkSessionsCompleted: s.WorkSessionsCompleted,
			ParticipantCount:      len(participants),
			SummaryNote:           req.SummaryNote,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Task state belongs to the task service; report after commit and log
	// failures rather than unwinding a completed session.
	if len(req.CompletedTaskIDs) > 0 || len(req.IncompleteTaskIDs) > 0 {
		if err := c.tasks.ReportSessionEnd(ctx, sessionID, req.CompletedTaskIDs, req.IncompleteTaskIDs); err != nil {
			c.log.Warn("session end task report failed", "session_id", sessionID, "error", err)
		}
	}

	c.log.Info("session ended",
		"session_id", sessionID, "duration_minutes", summary.TotalDurationMinutes)
	return summary, nil
}
