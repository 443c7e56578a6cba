// Package postgres provides PostgreSQL storage for sessions and their
// participant rosters. Each core operation maps to one transaction; the
// session row is locked on load so concurrent mutations of the same
// session serialise on commit order.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/focusmate/session-service/pkg/session"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// sessionColumns lists columns returned by session SELECT queries.
var sessionColumns = []string{
	"session_id", "owner_username", "session_name", "description",
	"invite_code", "status", "current_type",
	"work_duration_minutes", "short_break_minutes", "long_break_minutes",
	"current_duration_minutes", "current_phase_start_time",
	"total_work_sessions_completed", "max_participants",
	"current_participant_count", "start_time", "end_time", "scheduled_time",
	"paused_at", "created_at", "updated_at", "is_deleted",
	"total_session_duration_minutes", "task_ids",
}

// participantColumns lists columns returned by participant SELECT queries.
var participantColumns = []string{
	"id", "session_id", "user_id", "role", "joined_at", "last_left_time",
	"is_active", "is_currently_in_session", "current_session_start_time",
	"total_session_time_minutes", "work_sessions_participated",
}

// Store implements session.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL session store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a database transaction, rolling back on error.
func (s *Store) InTx(ctx context.Context, fn func(tx session.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(&pgTx{tx: dbTx}); err != nil {
		_ = dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// pgTx is the per-transaction view over *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

// FindSessionByID loads and row-locks a non-deleted session.
func (t *pgTx) FindSessionByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	query, args, err := psq.Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"session_id": id, "is_deleted": false}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session query: %w", err)
	}
	return scanSession(t.tx.QueryRowContext(ctx, query, args...))
}

// FindSessionByInviteCode loads the ACTIVE non-deleted session holding the
// canonical code.
func (t *pgTx) FindSessionByInviteCode(ctx context.Context, code string) (*session.Session, error) {
	query, args, err := psq.Select(sessionColumns...).
		From("sessions").
		Where(sq.Eq{"invite_code": code, "status": session.StatusActive, "is_deleted": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building invite code query: %w", err)
	}
	return scanSession(t.tx.QueryRowContext(ctx, query, args...))
}

// FindActiveSessionByUser loads the live session the user actively
// participates in.
func (t *pgTx) FindActiveSessionByUser(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	query, args, err := psq.Select(prefixed("s.", sessionColumns)...).
		From("sessions s").
		Join("session_participants p ON p.session_id = s.session_id").
		Where(sq.Eq{
			"p.user_id":    userID,
			"p.is_active":  true,
			"s.is_deleted": false,
		}).
		Where(sq.Eq{"s.status": []session.Status{session.StatusActive, session.StatusPaused}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building active session query: %w", err)
	}
	return scanSession(t.tx.QueryRowContext(ctx, query, args...))
}

// OwnerHasLiveSession reports whether the owner has an ACTIVE or PAUSED
// session.
func (t *pgTx) OwnerHasLiveSession(ctx context.Context, ownerUsername string) (bool, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("sessions").
		Where(sq.Eq{
			"owner_username": ownerUsername,
			"is_deleted":     false,
			"status":         []session.Status{session.StatusActive, session.StatusPaused},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building live session query: %w", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("counting live sessions: %w", err)
	}
	return count > 0, nil
}

// InviteCodeTaken reports whether the code belongs to any ACTIVE
// non-deleted session.
func (t *pgTx) InviteCodeTaken(ctx context.Context, code string) (bool, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("sessions").
		Where(sq.Eq{"invite_code": code, "status": session.StatusActive, "is_deleted": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building invite code check: %w", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking invite code: %w", err)
	}
	return count > 0, nil
}

// SaveSession upserts the session row.
func (t *pgTx) SaveSession(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions
		(session_id, owner_username, session_name, description, invite_code,
		 status, current_type, work_duration_minutes, short_break_minutes,
		 long_break_minutes, current_duration_minutes, current_phase_start_time,
		 total_work_sessions_completed, max_participants,
		 current_participant_count, start_time, end_time, scheduled_time,
		 paused_at, created_at, updated_at, is_deleted,
		 total_session_duration_minutes, task_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (session_id) DO UPDATE SET
			session_name = EXCLUDED.session_name,
			description = EXCLUDED.description,
			invite_code = EXCLUDED.invite_code,
			status = EXCLUDED.status,
			current_type = EXCLUDED.current_type,
			work_duration_minutes = EXCLUDED.work_duration_minutes,
			short_break_minutes = EXCLUDED.short_break_minutes,
			long_break_minutes = EXCLUDED.long_break_minutes,
			current_duration_minutes = EXCLUDED.current_duration_minutes,
			current_phase_start_time = EXCLUDED.current_phase_start_time,
			total_work_sessions_completed = EXCLUDED.total_work_sessions_completed,
			max_participants = EXCLUDED.max_participants,
			current_participant_count = EXCLUDED.current_participant_count,
			end_time = EXCLUDED.end_time,
			scheduled_time = EXCLUDED.scheduled_time,
			paused_at = EXCLUDED.paused_at,
			updated_at = EXCLUDED.updated_at,
			is_deleted = EXCLUDED.is_deleted,
			total_session_duration_minutes = EXCLUDED.total_session_duration_minutes,
			task_ids = EXCLUDED.task_ids
	`
	_, err := t.tx.ExecContext(ctx, query,
		s.ID, s.OwnerUsername, s.Name, s.Description, s.InviteCode,
		s.Status, s.CurrentPhase, s.WorkMinutes, s.ShortBreakMinutes,
		s.LongBreakMinutes, s.CurrentPhaseMinutes, s.CurrentPhaseStartTime,
		s.WorkSessionsCompleted, s.MaxParticipants,
		s.ParticipantCount, s.StartTime, nullTime(s.EndTime), nullTime(s.ScheduledTime),
		nullTime(s.PausedAt), s.CreatedAt, s.UpdatedAt, s.Deleted,
		nullInt(s.TotalDurationMinutes), pq.Array(uuidStrings(s.TaskIDs)),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// SaveParticipant upserts a roster row.
func (t *pgTx) SaveParticipant(ctx context.Context, p *session.Participant) error {
	query := `
		INSERT INTO session_participants
		(id, session_id, user_id, role, joined_at, last_left_time, is_active,
		 is_currently_in_session, current_session_start_time,
		 total_session_time_minutes, work_sessions_participated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			last_left_time = EXCLUDED.last_left_time,
			is_active = EXCLUDED.is_active,
			is_currently_in_session = EXCLUDED.is_currently_in_session,
			current_session_start_time = EXCLUDED.current_session_start_time,
			total_session_time_minutes = EXCLUDED.total_session_time_minutes,
			work_sessions_participated = EXCLUDED.work_sessions_participated
	`
	_, err := t.tx.ExecContext(ctx, query,
		p.ID, p.SessionID, p.UserID, p.Role, p.JoinedAt,
		nullTime(p.LastLeftTime), p.Active, p.CurrentlyInSession,
		nullTime(p.CurrentStintStart), p.TotalSessionTimeMinutes,
		p.WorkSessionsParticipated,
	)
	if err != nil {
		return fmt.Errorf("saving participant: %w", err)
	}
	return nil
}

// FindParticipant loads the roster row for (session, user), active or not.
func (t *pgTx) FindParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*session.Participant, error) {
	query, args, err := psq.Select(participantColumns...).
		From("session_participants").
		Where(sq.Eq{"session_id": sessionID, "user_id": userID}).
		OrderBy("joined_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building participant query: %w", err)
	}
	return scanParticipant(t.tx.QueryRowContext(ctx, query, args...))
}

// DeactivateParticipant marks the active row inactive and stamps the leave
// time.
func (t *pgTx) DeactivateParticipant(ctx context.Context, sessionID, userID uuid.UUID, when time.Time) error {
	query := `
		UPDATE session_participants
		SET is_active = FALSE, is_currently_in_session = FALSE,
		    current_session_start_time = NULL, last_left_time = $3
		WHERE session_id = $1 AND user_id = $2 AND is_active
	`
	_, err := t.tx.ExecContext(ctx, query, sessionID, userID, when)
	if err != nil {
		return fmt.Errorf("deactivating participant: %w", err)
	}
	return nil
}

// CountActiveParticipants returns the number of active roster rows.
func (t *pgTx) CountActiveParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("session_participants").
		Where(sq.Eq{"session_id": sessionID, "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building participant count: %w", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting participants: %w", err)
	}
	return count, nil
}

// IsActiveParticipant reports whether the user holds an active roster row.
func (t *pgTx) IsActiveParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("session_participants").
		Where(sq.Eq{"session_id": sessionID, "user_id": userID, "is_active": true}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building membership check: %w", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return count > 0, nil
}

// ActiveParticipants returns the active roster rows ordered by join time.
func (t *pgTx) ActiveParticipants(ctx context.Context, sessionID uuid.UUID) ([]*session.Participant, error) {
	query, args, err := psq.Select(participantColumns...).
		From("session_participants").
		Where(sq.Eq{"session_id": sessionID, "is_active": true}).
		OrderBy("joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building participant list: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*session.Participant
	for rows.Next() {
		p, err := scanParticipantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participant rows: %w", err)
	}
	return out, nil
}

// Verify interface compliance.
var (
	_ session.Store = (*Store)(nil)
	_ session.Tx    = (*pgTx)(nil)
)
