package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/focusmate/session-service/pkg/clock"
	"github.com/focusmate/session-service/pkg/invite"
	"github.com/focusmate/session-service/pkg/tasks"
	"github.com/focusmate/session-service/pkg/userdir"
)

// Core orchestrates every session operation. It holds no state of its own
// beyond injected collaborators; all shared state lives in the Store.
type Core struct {
	store  Store
	clock  clock.Clock
	minter *invite.Minter
	users  userdir.Directory
	tasks  tasks.Service
	limits Limits
	log    *slog.Logger
}

// NewCore creates a Core with explicit dependencies.
func NewCore(store Store, clk clock.Clock, minter *invite.Minter, users userdir.Directory, taskSvc tasks.Service, limits Limits, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	return &Core{
		store:  store,
		clock:  clk,
		minter: minter,
		users:  users,
		tasks:  taskSvc,
		limits: limits,
		log:    log,
	}
}

// Limits returns the validation bands the core enforces.
func (c *Core) Limits() Limits {
	return c.limits
}

// resolveUser resolves a user id to a username before any transaction is
// opened. Unknown users surface as invalid data; directory outages as
// transient failures.
func (c *Core) resolveUser(ctx context.Context, userID uuid.UUID) (string, error) {
	username, err := c.users.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, userdir.ErrUnknownUser) {
			return "", fmt.Errorf("%w: unknown user %s", ErrInvalidData, userID)
		}
		return "", fmt.Errorf("%w: resolving user: %w", ErrTransient, err)
	}
	return username, nil
}

// loadSession fetches a session inside the transaction, mapping absence
// (including soft-deleted rows) to ErrNotFound.
func loadSession(ctx context.Context, tx Tx, id uuid.UUID) (*Session, error) {
	s, err := tx.FindSessionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return s, nil
}

// requireOwner asserts the actor's username matches the session owner.
func (c *Core) requireOwner(s *Session, actorUsername string) error {
	if s.OwnerUsername != actorUsername {
		return fmt.Errorf("%w: only the session owner may perform this operation", ErrAccessDenied)
	}
	return nil
}

// requireMember asserts the actor is the owner or an active participant.
func requireMember(ctx context.Context, tx Tx, s *Session, actorUsername string, actorID uuid.UUID) error {
	if s.OwnerUsername == actorUsername {
		return nil
	}
	active, err := tx.IsActiveParticipant(ctx, s.ID, actorID)
	if err != nil {
		return fmt.Errorf("checking participant membership: %w", err)
	}
	if !active {
		return fmt.Errorf("%w: not a participant of this session", ErrAccessDenied)
	}
	return nil
}

// activeParticipantIDs collects the user ids of active roster rows.
func activeParticipantIDs(ctx context.Context, tx Tx, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.ActiveParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// Create builds a new ACTIVE session in its first work phase, mints its
// invite code and seeds the roster with the owner.
func (c *Core) Create(ctx context.Context, req CreateRequest, ownerID uuid.UUID) (*Response, error) {
	if err := validateCreate(req, c.limits); err != nil {
		return nil, err
	}

	ownerUsername, err := c.resolveUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var resp *Response

	err = c.store.InTx(ctx, func(tx Tx) error {
		live, err := tx.OwnerHasLiveSession(ctx, ownerUsername)
		if err != nil {
			return fmt.Errorf("checking for live session: %w", err)
		}
		if live {
			return fmt.Errorf("%w: owner %s", ErrConflictingActiveSession, ownerUsername)
		}

		code, err := c.minter.Mint(ctx, tx.InviteCodeTaken)
		if err != nil {
			return fmt.Errorf("minting invite code: %w", err)
		}

		s := &Session{
			ID:                    uuid.New(),
			OwnerUsername:         ownerUsername,
			Name:                  req.Name,
			Description:           req.Description,
			InviteCode:            code,
			Status:                StatusActive,
			CurrentPhase:          PhaseWork,
			WorkMinutes:           req.WorkMinutes,
			ShortBreakMinutes:     req.ShortBreakMinutes,
			LongBreakMinutes:      req.LongBreakMinutes,
			CurrentPhaseMinutes:   req.WorkMinutes,
			CurrentPhaseStartTime: now,
			MaxParticipants:       req.MaxParticipants,
			ParticipantCount:      1,
			StartTime:             now,
			ScheduledTime:         req.ScheduledTime,
			CreatedAt:             now,
			UpdatedAt:             now,
			TaskIDs:               append([]uuid.UUID(nil), req.TaskIDs...),
		}
		if err := tx.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}

		owner := &Participant{
			ID:                 uuid.New(),
			SessionID:          s.ID,
			UserID:             ownerID,
			Role:               RoleOwner,
			JoinedAt:           now,
			Active:             true,
			CurrentlyInSession: true,
			CurrentStintStart:  &now,
		}
		if err := tx.SaveParticipant(ctx, owner); err != nil {
			return fmt.Errorf("saving owner participant: %w", err)
		}

		resp = toResponse(s, []uuid.UUID{ownerID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("session created",
		"session_id", resp.ID, "owner", ownerUsername, "invite_code", resp.InviteCode)
	return resp, nil
}

// Update applies an explicit patch to a session's configuration.
func (c *Core) Update(ctx context.Context, sessionID uuid.UUID, patch UpdateRequest, actorID uuid.UUID) (*Response, error) {
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
		if err := validateUpdate(patch, c.limits); err != nil {
			return err
		}

		if name, ok := patch.Name.Get(); ok {
			s.Name = name
		}
		if desc, ok := patch.Description.Get(); ok {
			s.Description = desc
		}
		if v, ok := patch.WorkMinutes.Get(); ok {
			s.WorkMinutes = v
			if s.CurrentPhase == PhaseWork {
				s.CurrentPhaseMinutes = v
			}
		}
		if v, ok := patch.ShortBreakMinutes.Get(); ok {
			s.ShortBreakMinutes = v
			if s.CurrentPhase == PhaseShortBreak {
				s.CurrentPhaseMinutes = v
			}
		}
		if v, ok := patch.LongBreakMinutes.Get(); ok {
			s.LongBreakMinutes = v
			if s.CurrentPhase == PhaseLongBreak {
				s.CurrentPhaseMinutes = v
			}
		}
		if v, ok := patch.MaxParticipants.Get(); ok {
			if v < s.ParticipantCount {
				return fmt.Errorf("%w: maxParticipants %d below current participant count %d",
					ErrInvalidData, v, s.ParticipantCount)
			}
			s.MaxParticipants = v
		}

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

// Delete soft-deletes a session. The row is kept; every finder filters it
// out from then on. Deleting an already-deleted session reports not found.
func (c *Core) Delete(ctx context.Context, sessionID, actorID uuid.UUID) error {
	actorUsername, err := c.resolveUser(ctx, actorID)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	err = c.store.InTx(ctx, func(tx Tx) error {
		s, err := loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := c.requireOwner(s, actorUsername); err != nil {
			return err
		}
		if s.Status.Terminal() {
			return fmt.Errorf("%w: session is already %s", ErrInvalidData, s.Status)
		}

		s.Deleted = true
		s.UpdatedAt = now
		if err := tx.SaveSession(ctx, s); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("session deleted", "session_id", sessionID, "owner", actorUsername)
	return nil
}

// CurrentActive returns the session the user is actively participating in.
func (c *Core) CurrentActive(ctx context.Context, userID uuid.UUID) (*Response, error) {
	var resp *Response
	err := c.store.InTx(ctx, func(tx Tx) error {
		s, err := tx.FindActiveSessionByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("finding active session: %w", err)
		}
		if s == nil {
			return fmt.Errorf("%w: no active session for user %s", ErrNotFound, userID)
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

// ByInviteCode returns the ACTIVE session holding the code. The code is
// trimmed and matched case-insensitively.
func (c *Core) ByInviteCode(ctx context.Context, code string) (*Response, error) {
	code = invite.Normalize(code)
	if !invite.Valid(code) {
		return nil, fmt.Errorf("%w: malformed code", ErrInviteCodeInvalid)
	}

	var resp *Response
	err := c.store.InTx(ctx, func(tx Tx) error {
		s, err := tx.FindSessionByInviteCode(ctx, code)
		if err != nil {
			return fmt.Errorf("finding session by invite code: %w", err)
		}
		if s == nil {
			return fmt.Errorf("%w: code %s", ErrNotFound, code)
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

// stintMinutes returns the whole minutes of a participant's current stint.
func stintMinutes(p *Participant, now time.Time) int {
	if p.CurrentStintStart == nil {
		return 0
	}
	m := int(now.Sub(*p.CurrentStintStart) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}
