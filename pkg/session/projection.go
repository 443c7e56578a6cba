package session

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Response is the full session projection returned by most operations.
type Response struct {
	ID                    uuid.UUID   `json:"sessionId"`
	OwnerUsername         string      `json:"ownerUsername"`
	Name                  string      `json:"sessionName"`
	Description           string      `json:"description,omitempty"`
	InviteCode            string      `json:"inviteCode"`
	Status                Status      `json:"status"`
	CurrentPhase          Phase       `json:"currentType"`
	WorkMinutes           int         `json:"workDurationMinutes"`
	ShortBreakMinutes     int         `json:"shortBreakMinutes"`
	LongBreakMinutes      int         `json:"longBreakMinutes"`
	CurrentPhaseMinutes   int         `json:"currentDurationMinutes"`
	CurrentPhaseStartTime time.Time   `json:"currentPhaseStartTime"`
	WorkSessionsCompleted int         `json:"totalWorkSessionsCompleted"`
	MaxParticipants       int         `json:"maxParticipants"`
	ParticipantCount      int         `json:"currentParticipantCount"`
	StartTime             time.Time   `json:"startTime"`
	EndTime               *time.Time  `json:"endTime,omitempty"`
	ScheduledTime         *time.Time  `json:"scheduledTime,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
	TaskIDs               []uuid.UUID `json:"taskIds"`
	ParticipantIDs        []uuid.UUID `json:"participantIds"`
}

// Progress is the on-demand phase timing projection. There is no
// server-driven ticking; clients poll this.
type Progress struct {
	ID                       uuid.UUID   `json:"sessionId"`
	Name                     string      `json:"sessionName"`
	Status                   Status      `json:"status"`
	CurrentPhase             Phase       `json:"currentType"`
	StartTime                time.Time   `json:"startTime"`
	CurrentPhaseStartTime    time.Time   `json:"currentPhaseStartTime"`
	ElapsedTime              Duration    `json:"elapsedTime"`
	TimeRemainingInPhase     Duration    `json:"timeRemainingInPhase"`
	CurrentPhaseMinutes      int         `json:"currentDurationMinutes"`
	TasksCompleted           int         `json:"tasksCompleted"`
	TotalTasks               int         `json:"totalTasks"`
	WorkSessionsCompleted    int         `json:"totalWorkSessionsCompleted"`
	ActiveParticipants       []uuid.UUID `json:"activeParticipants"`
	CompletedTaskIDs         []uuid.UUID `json:"completedTaskIds"`
	WaitingForBreakSelection bool        `json:"isWaitingForBreakSelection"`
}

// BreakOptions surfaces what the client needs to choose the next break.
type BreakOptions struct {
	ID                    uuid.UUID `json:"sessionId"`
	Name                  string    `json:"sessionName"`
	Tasks                 int       `json:"tasks"`
	CurrentPhase          Phase     `json:"currentType"`
	WorkSessionsCompleted int       `json:"workSessionsCompleted"`
	ShortBreakMinutes     int       `json:"shortBreakMinutes"`
	LongBreakMinutes      int       `json:"longBreakMinutes"`
	PhaseStartTime        time.Time `json:"phaseStartTime"`
	TimeRemaining         Duration  `json:"timeRemaining"`
}

// Summary is the wrap-up projection returned by End.
type Summary struct {
	ID                    uuid.UUID  `json:"sessionId"`
	Name                  string     `json:"sessionName"`
	Status                Status     `json:"status"`
	StartTime             time.Time  `json:"startTime"`
	EndTime               *time.Time `json:"endTime"`
	TotalDurationMinutes  int        `json:"totalSessionDurationMinutes"`
	WorkSessionsCompleted int        `json:"totalWorkSessionsCompleted"`
	ParticipantCount      int        `json:"participantCount"`
	SummaryNote           string     `json:"summaryNote,omitempty"`
}

// Duration marshals as whole seconds so boundary payloads stay unit-stable
// regardless of Go's duration formatting.
type Duration time.Duration

// MarshalJSON renders the duration as integer seconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	secs := int64(time.Duration(d) / time.Second)
	return []byte(strconv.FormatInt(secs, 10)), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// toResponse projects a session plus its active participant ids.
func toResponse(s *Session, participantIDs []uuid.UUID) *Response {
	if participantIDs == nil {
		participantIDs = []uuid.UUID{}
	}
	taskIDs := s.TaskIDs
	if taskIDs == nil {
		taskIDs = []uuid.UUID{}
	}
	return &Response{
		ID:                    s.ID,
		OwnerUsername:         s.OwnerUsername,
		Name:                  s.Name,
		Description:           s.Description,
		InviteCode:            s.InviteCode,
		Status:                s.Status,
		CurrentPhase:          s.CurrentPhase,
		WorkMinutes:           s.WorkMinutes,
		ShortBreakMinutes:     s.ShortBreakMinutes,
		LongBreakMinutes:      s.LongBreakMinutes,
		CurrentPhaseMinutes:   s.CurrentPhaseMinutes,
		CurrentPhaseStartTime: s.CurrentPhaseStartTime,
		WorkSessionsCompleted: s.WorkSessionsCompleted,
		MaxParticipants:       s.MaxParticipants,
		ParticipantCount:      s.ParticipantCount,
		StartTime:             s.StartTime,
		EndTime:               s.EndTime,
		ScheduledTime:         s.ScheduledTime,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		TaskIDs:               taskIDs,
		ParticipantIDs:        participantIDs,
	}
}
