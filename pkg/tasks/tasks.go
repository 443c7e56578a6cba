// Package tasks provides the task service port. The session core stores
// only task identifiers; content, completion state and validity live in the
// task service, reached through this interface.
package tasks

import (
	"context"

	"github.com/google/uuid"
)

// Service is the outbound port to the task service.
type Service interface {
	// MarkCompleted records a task as completed.
	MarkCompleted(ctx context.Context, taskID uuid.UUID) error

	// ReportSessionEnd forwards the end-of-session completion report.
	// Task state is owned by the task service; the session core does not
	// interpret the lists.
	ReportSessionEnd(ctx context.Context, sessionID uuid.UUID, completed, incomplete []uuid.UUID) error

	// Completed returns the subset of taskIDs the task service records as
	// completed.
	Completed(ctx context.Context, taskIDs []uuid.UUID) ([]uuid.UUID, error)
}

// Noop is a Service that does nothing, for tests and development.
type Noop struct{}

// MarkCompleted is a no-op.
func (Noop) MarkCompleted(context.Context, uuid.UUID) error { return nil }

// ReportSessionEnd is a no-op.
func (Noop) ReportSessionEnd(context.Context, uuid.UUID, []uuid.UUID, []uuid.UUID) error {
	return nil
}

// Completed reports no tasks as completed.
func (Noop) Completed(context.Context, []uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

// Verify interface compliance.
var _ Service = Noop{}
