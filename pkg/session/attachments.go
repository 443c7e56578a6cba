package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AddTask attaches a task reference to the session. At most MaxTasks
// distinct tasks can be attached.
func (c *Core) AddTask(ctx context.Context, sessionID, actorID, taskID uuid.UUID) (*Response, error) {
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
		if s.HasTask(taskID) {
			return fmt.Errorf("%w: task already attached", ErrInvalidData)
		}
		if len(s.TaskIDs) >= MaxTasks {
			return fmt.Errorf("%w: at most %d tasks can be attached", ErrInvalidData, MaxTasks)
		}

		s.TaskIDs = append(s.TaskIDs, taskID)
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
	return resp, nil
}

// RemoveTask detaches a task reference from the session.
func (c *Core) RemoveTask(ctx context.Context, sessionID, actorID, taskID uuid.UUID) (*Response, error) {
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
		if !s.HasTask(taskID) {
			return fmt.Errorf("%w: task not attached", ErrInvalidData)
		}

		kept := make([]uuid.UUID, 0, len(s.TaskIDs)-1)
		for _, id := range s.TaskIDs {
			if id != taskID {
				kept = append(kept, id)
			}
		}
		s.TaskIDs = kept
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
	return resp, nil
}

// MarkTaskCompleted validates the task is attached, then delegates the
// completion to the task service. The session itself is unchanged; the
// service call happens after the transaction so no lock is held across it.
func (c *Core) MarkTaskCompleted(ctx context.Context, sessionID, actorID, taskID uuid.UUID) (*Response, error) {
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
		if err := requireMember(ctx, tx, s, actorUsername, actorID); err != nil {
			return err
		}
		if !s.HasTask(taskID) {
			return fmt.Errorf("%w: task not attached", ErrInvalidData)
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

	if err := c.tasks.MarkCompleted(ctx, taskID); err != nil {
		return nil, fmt.Errorf("%w: marking task completed: %w", ErrTransient, err)
	}

	c.log.Info("task completed", "session_id", sessionID, "task_id", taskID)
	return resp, nil
}

// Tasks returns the attached task ids. The caller must be the owner or an
// active participant.
func (c *Core) Tasks(ctx context.Context, sessionID, actorID uuid.UUID) ([]uuid.UUID, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var out []uuid.UUID
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, tx, s, actorUsername, actorID); err != nil {
			return err
		}
		out = append([]uuid.UUID{}, s.TaskIDs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
