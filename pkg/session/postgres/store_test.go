package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmate/session-service/pkg/session"
)

var (
	testSessionID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	testUserID    = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	testTaskID    = uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	testTime      = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func sessionRow() *sqlmock.Rows {
	return sqlmock.NewRows(sessionColumns).AddRow(
		testSessionID.String(), "alice", "focus time", "",
		"ABCD1234", "ACTIVE", "WORK",
		25, 5, 15,
		25, testTime,
		0, 10,
		1, testTime, nil, nil,
		nil, testTime, testTime, false,
		nil, []byte(fmt.Sprintf("{%s}", testTaskID)),
	)
}

func participantRow() *sqlmock.Rows {
	return sqlmock.NewRows(participantColumns).AddRow(
		uuid.New().String(), testSessionID.String(), testUserID.String(), "OWNER",
		testTime, nil,
		true, true, testTime,
		0, 0,
	)
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(session.Tx) error { return nil })
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	opErr := errors.New("operation failed")
	err := store.InTx(context.Background(), func(session.Tx) error { return opErr })
	assert.ErrorIs(t, err, opErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSessionByID(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM sessions WHERE .+ FOR UPDATE`).
		WithArgs(false, testSessionID).
		WillReturnRows(sessionRow())
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		s, err := tx.FindSessionByID(context.Background(), testSessionID)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, testSessionID, s.ID)
		assert.Equal(t, "alice", s.OwnerUsername)
		assert.Equal(t, session.StatusActive, s.Status)
		assert.Equal(t, session.PhaseWork, s.CurrentPhase)
		assert.Equal(t, []uuid.UUID{testTaskID}, s.TaskIDs)
		assert.Nil(t, s.EndTime)
		assert.Nil(t, s.TotalDurationMinutes)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSessionByID_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM sessions`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		s, err := tx.FindSessionByID(context.Background(), testSessionID)
		require.NoError(t, err)
		assert.Nil(t, s)
		return nil
	})
	require.NoError(t, err)
}

func TestFindSessionByInviteCode(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM sessions WHERE`).
		WithArgs("ABCD1234", false, "ACTIVE").
		WillReturnRows(sessionRow())
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		s, err := tx.FindSessionByInviteCode(context.Background(), "ABCD1234")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "ABCD1234", s.InviteCode)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveSessionByUser(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM sessions s JOIN session_participants p`).
		WillReturnRows(sessionRow())
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		s, err := tx.FindActiveSessionByUser(context.Background(), testUserID)
		require.NoError(t, err)
		require.NotNil(t, s)
		return nil
	})
	require.NoError(t, err)
}

func TestOwnerHasLiveSession(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		live, err := tx.OwnerHasLiveSession(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, live)
		return nil
	})
	require.NoError(t, err)
}

func TestInviteCodeTaken_Free(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		taken, err := tx.InviteCodeTaken(context.Background(), "ABCD1234")
		require.NoError(t, err)
		assert.False(t, taken)
		return nil
	})
	require.NoError(t, err)
}

func TestSaveSession(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &session.Session{
		ID:                    testSessionID,
		OwnerUsername:         "alice",
		Name:                  "focus time",
		InviteCode:            "ABCD1234",
		Status:                session.StatusActive,
		CurrentPhase:          session.PhaseWork,
		WorkMinutes:           25,
		ShortBreakMinutes:     5,
		LongBreakMinutes:      15,
		CurrentPhaseMinutes:   25,
		CurrentPhaseStartTime: testTime,
		MaxParticipants:       10,
		ParticipantCount:      1,
		StartTime:             testTime,
		CreatedAt:             testTime,
		UpdatedAt:             testTime,
		TaskIDs:               []uuid.UUID{testTaskID},
	}
	err := store.InTx(context.Background(), func(tx session.Tx) error {
		return tx.SaveSession(context.Background(), s)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSession_DBError(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		return tx.SaveSession(context.Background(), &session.Session{ID: testSessionID})
	})
	assert.Error(t, err)
}

func TestSaveParticipant(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO session_participants`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &session.Participant{
		ID:        uuid.New(),
		SessionID: testSessionID,
		UserID:    testUserID,
		Role:      session.RoleOwner,
		JoinedAt:  testTime,
		Active:    true,
	}
	err := store.InTx(context.Background(), func(tx session.Tx) error {
		return tx.SaveParticipant(context.Background(), p)
	})
	require.NoError(t, err)
}

func TestFindParticipant(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_participants WHERE .+ ORDER BY joined_at DESC LIMIT 1`).
		WillReturnRows(participantRow())
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		p, err := tx.FindParticipant(context.Background(), testSessionID, testUserID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, testUserID, p.UserID)
		assert.Equal(t, session.RoleOwner, p.Role)
		assert.True(t, p.Active)
		require.NotNil(t, p.CurrentStintStart)
		return nil
	})
	require.NoError(t, err)
}

func TestFindParticipant_NotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_participants`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		p, err := tx.FindParticipant(context.Background(), testSessionID, testUserID)
		require.NoError(t, err)
		assert.Nil(t, p)
		return nil
	})
	require.NoError(t, err)
}

func TestDeactivateParticipant(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE session_participants`).
		WithArgs(testSessionID, testUserID, testTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		return tx.DeactivateParticipant(context.Background(), testSessionID, testUserID, testTime)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActiveParticipants(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM session_participants`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		n, err := tx.CountActiveParticipants(context.Background(), testSessionID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		return nil
	})
	require.NoError(t, err)
}

func TestActiveParticipants(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows(participantColumns).
		AddRow(uuid.New().String(), testSessionID.String(), testUserID.String(), "OWNER",
			testTime, nil, true, true, testTime, 0, 0).
		AddRow(uuid.New().String(), testSessionID.String(), uuid.New().String(), "PARTICIPANT",
			testTime.Add(time.Minute), nil, true, true, testTime.Add(time.Minute), 0, 0)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_participants WHERE .+ ORDER BY joined_at ASC`).
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx session.Tx) error {
		out, err := tx.ActiveParticipants(context.Background(), testSessionID)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, session.RoleOwner, out[0].Role)
		assert.Equal(t, session.RoleParticipant, out[1].Role)
		return nil
	})
	require.NoError(t, err)
}
