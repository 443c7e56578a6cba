// Package session implements the core of the collaborative pomodoro
// service: the session aggregate, its participant roster, the lifecycle
// and phase state machine, and the invariants tying them together.
//
// The Core type orchestrates every operation. It composes a transactional
// Store, a Clock, an invite code Minter, and the external UserDirectory
// and TaskService ports, all injected through NewCore.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is a session's lifecycle state.
type Status string

// Session lifecycle states.
const (
	StatusScheduled Status = "SCHEDULED"
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Phase is a segment of the pomodoro cycle.
type Phase string

// Pomodoro phases.
const (
	PhaseWork       Phase = "WORK"
	PhaseShortBreak Phase = "SHORT_BREAK"
	PhaseLongBreak  Phase = "LONG_BREAK"
)

// Role distinguishes the session owner from invited participants.
type Role string

// Participant roles.
const (
	RoleOwner       Role = "OWNER"
	RoleParticipant Role = "PARTICIPANT"
)

// MaxTasks is the largest number of task attachments a session can hold.
const MaxTasks = 20

// Session is the aggregate root. All mutation goes through Core operations;
// the struct itself carries no behavior beyond small derived accessors.
type Session struct {
	ID            uuid.UUID
	OwnerUsername string
	Name          string
	Description   string
	InviteCode    string

	Status Status

	CurrentPhase          Phase
	WorkMinutes           int
	ShortBreakMinutes     int
	LongBreakMinutes      int
	CurrentPhaseMinutes   int
	CurrentPhaseStartTime time.Time
	WorkSessionsCompleted int

	MaxParticipants  int
	ParticipantCount int

	StartTime     time.Time
	EndTime       *time.Time
	ScheduledTime *time.Time
	PausedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	TotalDurationMinutes *int
	Deleted              bool

	// TaskIDs is the ordered list of attached task references, at most
	// MaxTasks entries, all distinct.
	TaskIDs []uuid.UUID
}

// HasTask reports whether the task is attached to the session.
func (s *Session) HasTask(taskID uuid.UUID) bool {
	for _, id := range s.TaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// phaseBudget returns the configured minutes for the given phase.
func (s *Session) phaseBudget(p Phase) int {
	switch p {
	case PhaseShortBreak:
		return s.ShortBreakMinutes
	case PhaseLongBreak:
		return s.LongBreakMinutes
	default:
		return s.WorkMinutes
	}
}

// Participant is one roster row. Rows are never physically removed: leave
// and remove flip Active off and stamp LastLeftTime, keeping the row for
// audit.
type Participant struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	UserID    uuid.UUID
	Role      Role

	JoinedAt     time.Time
	LastLeftTime *time.Time

	Active             bool
	CurrentlyInSession bool

	CurrentStintStart        *time.Time
	TotalSessionTimeMinutes  int
	WorkSessionsParticipated int
}

// Limits carries the configurable validation bands for session fields.
// The zero value is unusable; construct with DefaultLimits or from config.
type Limits struct {
	MinParticipants int
	MaxParticipants int

	MinWorkMinutes int
	MaxWorkMinutes int

	MinShortBreakMinutes int
	MaxShortBreakMinutes int

	MinLongBreakMinutes int
	MaxLongBreakMinutes int
}

// DefaultLimits returns the standard session bands.
func DefaultLimits() Limits {
	return Limits{
		MinParticipants:      1,
		MaxParticipants:      10,
		MinWorkMinutes:       15,
		MaxWorkMinutes:       180,
		MinShortBreakMinutes: 5,
		MaxShortBreakMinutes: 10,
		MinLongBreakMinutes:  15,
		MaxLongBreakMinutes:  25,
	}
}
