package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// startPhase moves the session into the given phase with a fresh timer.
// Shared by every phase operation; callers hold the transaction.
func (c *Core) startPhase(ctx context.Context, tx Tx, s *Session, p Phase) error {
	now := c.clock.Now()
	s.CurrentPhase = p
	s.CurrentPhaseMinutes = s.phaseBudget(p)
	s.CurrentPhaseStartTime = now
	s.UpdatedAt = now
	if err := tx.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// phaseOp loads the session, asserts ownership and ACTIVE status, applies
// mutate, and returns the refreshed projection.
func (c *Core) phaseOp(ctx context.Context, sessionID, actorID uuid.UUID, mutate func(tx Tx, s *Session) error) (*Response, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

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
			return fmt.Errorf("%w: phase changes require an active session, state is %s",
				ErrInvalidData, s.Status)
		}

		if err := mutate(tx, s); err != nil {
			return err
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
	return resp, nil
}

// StartWorkPhase begins a new work block.
func (c *Core) StartWorkPhase(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
	return c.phaseOp(ctx, sessionID, actorID, func(tx Tx, s *Session) error {
		return c.startPhase(ctx, tx, s, PhaseWork)
	})
}

// StartBreakPhase begins a short or long break.
func (c *Core) StartBreakPhase(ctx context.Context, sessionID, actorID uuid.UUID, breakType Phase) (*Response, error) {
	if breakType != PhaseShortBreak && breakType != PhaseLongBreak {
		return nil, fmt.Errorf("%w: break type must be SHORT_BREAK or LONG_BREAK", ErrInvalidData)
	}
	return c.phaseOp(ctx, sessionID, actorID, func(tx Tx, s *Session) error {
		return c.startPhase(ctx, tx, s, breakType)
	})
}

// CompleteWorkPhase records a finished work block and rolls straight into
// the next one. Break selection is surfaced separately via BreakOptions.
// Every active participant's work counter advances with the session's.
func (c *Core) CompleteWorkPhase(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
	resp, err := c.phaseOp(ctx, sessionID, actorID, func(tx Tx, s *Session) error {
		s.WorkSessionsCompleted++

		participants, err := tx.ActiveParticipants(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		for _, p := range participants {
			p.WorkSessionsParticipated++
			if err := tx.SaveParticipant(ctx, p); err != nil {
				return fmt.Errorf("saving participant: %w", err)
			}
		}

		return c.startPhase(ctx, tx, s, PhaseWork)
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("work phase completed",
		"session_id", sessionID, "total_completed", resp.WorkSessionsCompleted)
	return resp, nil
}

// SkipBreak moves straight into the next work block. Its state effect is
// identical to StartWorkPhase.
func (c *Core) SkipBreak(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
	return c.StartWorkPhase(ctx, sessionID, actorID)
}
