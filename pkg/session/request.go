package session

import (
	"time"

	"github.com/google/uuid"
)

// Opt is an explicit tagged optional for patch updates: a field is either
// kept as-is or set to a new value. This removes the ambiguity of
// nil-means-unchanged payloads at the core boundary.
type Opt[T any] struct {
	set   bool
	value T
}

// Set returns an Opt carrying a new value.
func Set[T any](v T) Opt[T] {
	return Opt[T]{set: true, value: v}
}

// Keep returns an Opt that leaves the field unchanged.
func Keep[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the carried value and whether one was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// CreateRequest carries the fields for a new session.
type CreateRequest struct {
	Name              string
	Description       string
	MaxParticipants   int
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
	ScheduledTime     *time.Time
	TaskIDs           []uuid.UUID
}

// DefaultCreateRequest returns a CreateRequest with the standard pomodoro
// durations filled in.
func DefaultCreateRequest(name string) CreateRequest {
	return CreateRequest{
		Name:              name,
		MaxParticipants:   10,
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
	}
}

// UpdateRequest is an explicit patch: every field is Keep or Set.
type UpdateRequest struct {
	Name              Opt[string]
	Description       Opt[string]
	MaxParticipants   Opt[int]
	WorkMinutes       Opt[int]
	ShortBreakMinutes Opt[int]
	LongBreakMinutes  Opt[int]
}

// EndRequest carries the optional wrap-up payload for endSession.
type EndRequest struct {
	SummaryNote       string
	CompletedTaskIDs  []uuid.UUID
	IncompleteTaskIDs []uuid.UUID
}

// maxSummaryNoteLen bounds the end-of-session summary note.
const maxSummaryNoteLen = 500

// maxNameLen and maxDescriptionLen bound the session text fields.
const (
	maxNameLen        = 20
	maxDescriptionLen = 255
)
