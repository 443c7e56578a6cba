package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/focusmate/session-service/pkg/session"
)

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (*session.Session, error) {
	s, err := scanSessionFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return s, nil
}

func scanSessionFrom(row rowScanner) (*session.Session, error) {
	var (
		s             session.Session
		endTime       sql.NullTime
		scheduledTime sql.NullTime
		pausedAt      sql.NullTime
		totalMinutes  sql.NullInt64
		taskIDs       []string
	)

	err := row.Scan(
		&s.ID, &s.OwnerUsername, &s.Name, &s.Description,
		&s.InviteCode, &s.Status, &s.CurrentPhase,
		&s.WorkMinutes, &s.ShortBreakMinutes, &s.LongBreakMinutes,
		&s.CurrentPhaseMinutes, &s.CurrentPhaseStartTime,
		&s.WorkSessionsCompleted, &s.MaxParticipants,
		&s.ParticipantCount, &s.StartTime, &endTime, &scheduledTime,
		&pausedAt, &s.CreatedAt, &s.UpdatedAt, &s.Deleted,
		&totalMinutes, pq.Array(&taskIDs),
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	if scheduledTime.Valid {
		s.ScheduledTime = &scheduledTime.Time
	}
	if pausedAt.Valid {
		s.PausedAt = &pausedAt.Time
	}
	if totalMinutes.Valid {
		v := int(totalMinutes.Int64)
		s.TotalDurationMinutes = &v
	}

	ids, err := parseUUIDs(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("parsing task ids: %w", err)
	}
	s.TaskIDs = ids
	return &s, nil
}

func scanParticipant(row *sql.Row) (*session.Participant, error) {
	p, err := scanParticipantFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning participant: %w", err)
	}
	return p, nil
}

func scanParticipantRow(rows *sql.Rows) (*session.Participant, error) {
	p, err := scanParticipantFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning participant row: %w", err)
	}
	return p, nil
}

func scanParticipantFrom(row rowScanner) (*session.Participant, error) {
	var (
		p          session.Participant
		leftTime   sql.NullTime
		stintStart sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.SessionID, &p.UserID, &p.Role, &p.JoinedAt, &leftTime,
		&p.Active, &p.CurrentlyInSession, &stintStart,
		&p.TotalSessionTimeMinutes, &p.WorkSessionsParticipated,
	)
	if err != nil {
		return nil, err
	}

	if leftTime.Valid {
		p.LastLeftTime = &leftTime.Time
	}
	if stintStart.Valid {
		p.CurrentStintStart = &stintStart.Time
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// prefixed qualifies column names with a table alias.
func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + c
	}
	return out
}
