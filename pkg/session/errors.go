package session

import "errors"

// Error kinds surfaced by the core. Operations wrap these with context via
// fmt.Errorf("...: %w", err); callers match with errors.Is.
var (
	// ErrNotFound indicates the session or participant is absent or
	// soft-deleted.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidData indicates a payload violates a band, size or format
	// rule, or the requested state change is illegal from the current
	// state.
	ErrInvalidData = errors.New("invalid session data")

	// ErrAccessDenied indicates the actor lacks the required role for the
	// operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrConflictingActiveSession indicates the owner already has a
	// session in ACTIVE or PAUSED state.
	ErrConflictingActiveSession = errors.New("owner already has an active session")

	// ErrCapacityExceeded indicates joining would exceed maxParticipants.
	ErrCapacityExceeded = errors.New("session participant capacity exceeded")

	// ErrInviteCodeInvalid indicates the supplied code does not match an
	// active session.
	ErrInviteCodeInvalid = errors.New("invalid invite code")

	// ErrTransient indicates a store or directory failure that is safe to
	// retry.
	ErrTransient = errors.New("transient backend failure")
)
