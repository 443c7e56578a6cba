// Package userdir provides the user directory port: resolving a user id to
// a username. The directory is owned by the user service; the session core
// only consumes it.
package userdir

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnknownUser is returned when the id does not resolve to a user.
var ErrUnknownUser = errors.New("unknown user")

// Directory resolves user identifiers to usernames.
type Directory interface {
	// Resolve returns the username for the user id, or ErrUnknownUser.
	Resolve(ctx context.Context, userID uuid.UUID) (string, error)
}

// Static is an in-memory Directory for tests and development.
type Static struct {
	users map[uuid.UUID]string
}

// NewStatic creates a Static directory over the given id → username map.
func NewStatic(users map[uuid.UUID]string) *Static {
	m := make(map[uuid.UUID]string, len(users))
	for id, name := range users {
		m[id] = name
	}
	return &Static{users: m}
}

// Resolve returns the mapped username or ErrUnknownUser.
func (s *Static) Resolve(_ context.Context, userID uuid.UUID) (string, error) {
	name, ok := s.users[userID]
	if !ok {
		return "", ErrUnknownUser
	}
	return name, nil
}

// Verify interface compliance.
var _ Directory = (*Static)(nil)
