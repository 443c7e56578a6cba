package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/focusmate/session-service/pkg/invite"
)

// Join adds a user to an ACTIVE session's roster after checking the invite
// code, membership and capacity. A user who left earlier has their original
// roster row reactivated so stint totals keep accumulating.
func (c *Core) Join(ctx context.Context, sessionID, userID uuid.UUID, code string) (*Response, error) {
	// Resolving also confirms the user exists in the directory.
	if _, err := c.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	code = invite.Normalize(code)
	now := c.clock.Now()
	var resp *Response

	err := c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != StatusActive {
			return fmt.Errorf("%w: session is not active", ErrInvalidData)
		}
		if code != s.InviteCode {
			return fmt.Errorf("%w: code does not match session", ErrInviteCodeInvalid)
		}

		active, err := tx.IsActiveParticipant(ctx, s.ID, userID)
		if err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if active {
			return fmt.Errorf("%w: already a participant", ErrInvalidData)
		}
		if s.ParticipantCount >= s.MaxParticipants {
			return fmt.Errorf("%w: session is full (%d/%d)",
				ErrCapacityExceeded, s.ParticipantCount, s.MaxParticipants)
		}

		p, err := tx.FindParticipant(ctx, s.ID, userID)
		if err != nil {
			return fmt.Errorf("loading participant: %w", err)
		}
		if p == nil {
			p = &Participant{
				ID:        uuid.New(),
				SessionID: s.ID,
				UserID:    userID,
				Role:      RoleParticipant,
				JoinedAt:  now,
			}
		}
		p.Active = true
		p.CurrentlyInSession = true
		p.CurrentStintStart = &now
		if err := tx.SaveParticipant(ctx, p); err != nil {
			return fmt.Errorf("saving participant: %w", err)
		}

		s.ParticipantCount++
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

	c.log.Info("participant joined", "session_id", sessionID, "user_id", userID)
	return resp, nil
}

// deactivate closes a participant's stint and shrinks the roster count.
// Callers have already verified the row is active.
func (c *Core) deactivate(ctx context.Context, tx Tx, s *Session, userID uuid.UUID) error {
	now := c.clock.Now()

	p, err := tx.FindParticipant(ctx, s.ID, userID)
	if err != nil {
		return fmt.Errorf("loading participant: %w", err)
	}
	if p != nil {
		// Close the stint before the membership flip so the totals land
		// in the same transaction.
		p.TotalSessionTimeMinutes += stintMinutes(p, now)
		p.CurrentlyInSession = false
		p.CurrentStintStart = nil
		if err := tx.SaveParticipant(ctx, p); err != nil {
			return fmt.Errorf("saving participant: %w", err)
		}
	}

	if err := tx.DeactivateParticipant(ctx, s.ID, userID, now); err != nil {
		return fmt.Errorf("deactivating participant: %w", err)
	}

	s.ParticipantCount--
	if s.ParticipantCount < 0 {
		s.ParticipantCount = 0
	}
	s.UpdatedAt = now
	if err := tx.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Leave removes the calling user from the roster. The owner cannot leave;
// an ownerless session would be unmanageable, so owners delete instead.
func (c *Core) Leave(ctx context.Context, sessionID, userID uuid.UUID) error {
	username, err := c.resolveUser(ctx, userID)
	if err != nil {
		return err
	}

	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != StatusActive {
			return fmt.Errorf("%w: session is not active", ErrInvalidData)
		}
		if s.OwnerUsername == username {
			return fmt.Errorf("%w: the owner cannot leave; delete the session instead", ErrAccessDenied)
		}

		active, err := tx.IsActiveParticipant(ctx, s.ID, userID)
		if err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if !active {
			return fmt.Errorf("%w: user is not an active participant", ErrNotFound)
		}

		return c.deactivate(ctx, tx, s, userID)
	})
	if err != nil {
		return err
	}

	c.log.Info("participant left", "session_id", sessionID, "user_id", userID)
	return nil
}

// RemoveUser lets the owner evict a non-owner participant.
func (c *Core) RemoveUser(ctx context.Context, sessionID, actorID, targetID uuid.UUID) error {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return err
	}

	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := c.requireOwner(s, actorUsername); err != nil {
			return err
		}
		if s.Status != StatusActive {
			return fmt.Errorf("%w: session is not active", ErrInvalidData)
		}
		if actorID == targetID {
			return fmt.Errorf("%w: the owner cannot remove themselves; delete the session instead", ErrInvalidData)
		}

		active, err := tx.IsActiveParticipant(ctx, s.ID, targetID)
		if err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if !active {
			return fmt.Errorf("%w: user is not an active participant", ErrNotFound)
		}

		return c.deactivate(ctx, tx, s, targetID)
	})
	if err != nil {
		return err
	}

	c.log.Info("participant removed",
		"session_id", sessionID, "user_id", targetID, "removed_by", actorUsername)
	return nil
}

// Invite returns the session with its invite code for the owner to share.
// The "invite" is a code-share, not a push: there are no side effects.
func (c *Core) Invite(ctx context.Context, sessionID, actorID uuid.UUID) (*Response, error) {
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
			return fmt.Errorf("%w: session is not active", ErrInvalidData)
		}
		if s.ParticipantCount >= s.MaxParticipants {
			return fmt.Errorf("%w: session is full", ErrInvalidData)
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

// Participants returns the user ids of active roster rows. The caller must
// be the owner or an active participant.
func (c *Core) Participants(ctx context.Context, sessionID, actorID uuid.UUID) ([]uuid.UUID, error) {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, tx, s, actorUsername, actorID); err != nil {
			return err
		}
		ids, err = activeParticipantIDs(ctx, tx, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsOwner reports whether the user owns the session. Absence of either the
// user or the session reads as false rather than an error.
func (c *Core) IsOwner(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	username, err := c.resolveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidData) {
			return false, nil
		}
		return false, err
	}

	var owner bool
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		owner = s.OwnerUsername == username
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return owner, nil
}

// CanJoin is a non-throwing dry run of Join: any rule that would reject the
// join reads as false, while genuine backend failures still propagate.
func (c *Core) CanJoin(ctx context.Context, sessionID, userID uuid.UUID, code string) (bool, error) {
	if _, err := c.resolveUser(ctx, userID); err != nil {
		if errors.Is(err, ErrInvalidData) {
			return false, nil
		}
		return false, err
	}

	code = invite.Normalize(code)
	var ok bool

	err := c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != StatusActive || code != s.InviteCode {
			return nil
		}
		active, err := tx.IsActiveParticipant(ctx, s.ID, userID)
		if err != nil {
			return fmt.Errorf("checking membership: %w", err)
		}
		if active || s.ParticipantCount >= s.MaxParticipants {
			return nil
		}
		ok = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidData) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
