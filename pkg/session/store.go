package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store provides transactional persistence over the sessions and
// session_participants tables. Every core operation runs inside exactly one
// InTx call; the function's error aborts the transaction.
//
// Finders return nil, nil when nothing matches. Soft-deleted sessions are
// filtered inside the store: no finder ever surfaces a deleted row.
type Store interface {
	// InTx runs fn in a single transaction. Mutations of the same session
	// serialise on the session row, so fn observes a consistent aggregate.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the per-transaction view of the store.
type Tx interface {
	// FindSessionByID loads a session by id. Locks the row for the
	// remainder of the transaction so subsequent writes serialise.
	FindSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindSessionByInviteCode loads the ACTIVE non-deleted session holding
	// the canonical code.
	FindSessionByInviteCode(ctx context.Context, code string) (*Session, error)

	// FindActiveSessionByUser loads the ACTIVE or PAUSED session the user
	// currently participates in, if any.
	FindActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*Session, error)

	// OwnerHasLiveSession reports whether the owner has a session in
	// ACTIVE or PAUSED state.
	OwnerHasLiveSession(ctx context.Context, ownerUsername string) (bool, error)

	// InviteCodeTaken reports whether the canonical code belongs to any
	// ACTIVE non-deleted session.
	InviteCodeTaken(ctx context.Context, code string) (bool, error)

	// SaveSession inserts or updates the session row.
	SaveSession(ctx context.Context, s *Session) error

	// SaveParticipant inserts or updates a roster row.
	SaveParticipant(ctx context.Context, p *Participant) error

	// FindParticipant loads the roster row for (session, user), active or
	// not. A user who left keeps their row, so rejoining reactivates it.
	FindParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*Participant, error)

	// DeactivateParticipant marks the active row inactive and stamps
	// LastLeftTime. The row itself is kept.
	DeactivateParticipant(ctx context.Context, sessionID, userID uuid.UUID, when time.Time) error

	// CountActiveParticipants returns the number of active roster rows.
	CountActiveParticipants(ctx context.Context, sessionID uuid.UUID) (int, error)

	// IsActiveParticipant reports whether the user holds an active row.
	IsActiveParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)

	// ActiveParticipants returns the active roster rows ordered by join
	// time.
	ActiveParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error)
}
