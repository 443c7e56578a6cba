//go:build integration

// Package e2e exercises the full stack against a real PostgreSQL instance:
// migrations, the postgres store, the session core, and the HTTP surface.
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/focusmate/session-service/pkg/api"
	"github.com/focusmate/session-service/pkg/clock"
	"github.com/focusmate/session-service/pkg/database/migrate"
	"github.com/focusmate/session-service/pkg/invite"
	"github.com/focusmate/session-service/pkg/session"
	sessionpg "github.com/focusmate/session-service/pkg/session/postgres"
	"github.com/focusmate/session-service/pkg/tasks"
	"github.com/focusmate/session-service/pkg/userdir"
)

var (
	aliceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bobID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// newTestStack starts PostgreSQL, migrates it, and serves the API over it.
func newTestStack(t *testing.T) (*httptest.Server, *clock.Fake) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15",
		tcpostgres.WithDatabase("sessions"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrate.Run(db))

	fc := clock.NewFake(time.Now().UTC())
	core := session.NewCore(
		sessionpg.New(db),
		fc,
		invite.NewMinter(),
		userdir.NewStatic(map[uuid.UUID]string{aliceID: "alice", bobID: "bob"}),
		tasks.Noop{},
		session.DefaultLimits(),
		nil,
	)

	srv := httptest.NewServer(api.NewHandler(core, api.AuthConfig{AllowAnonymous: true}))
	t.Cleanup(srv.Close)
	return srv, fc
}

func request(t *testing.T, srv *httptest.Server, method, path string, actor uuid.UUID, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-User-ID", actor.String())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSessionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, fc := newTestStack(t)

	// Alice creates a session.
	var created session.Response
	code := request(t, srv, http.MethodPost, "/api/v1/sessions", aliceID,
		`{"sessionName":"deep work"}`, &created)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, session.StatusActive, created.Status)
	path := "/api/v1/sessions/" + created.ID.String()

	// A second live session for the same owner conflicts.
	code = request(t, srv, http.MethodPost, "/api/v1/sessions", aliceID,
		`{"sessionName":"second"}`, nil)
	assert.Equal(t, http.StatusConflict, code)

	// Bob joins via the invite code.
	var joined session.Response
	code = request(t, srv, http.MethodPost, path+"/participants", bobID,
		`{"inviteCode":"`+created.InviteCode+`"}`, &joined)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, joined.ParticipantCount)

	// A work block completes; the counter advances.
	fc.Advance(25 * time.Minute)
	var afterWork session.Response
	code = request(t, srv, http.MethodPost, path+"/phases/complete-work", aliceID, "", &afterWork)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, afterWork.WorkSessionsCompleted)

	// Short break, then back to work.
	code = request(t, srv, http.MethodPost, path+"/phases/break", aliceID,
		`{"breakType":"SHORT_BREAK"}`, nil)
	require.Equal(t, http.StatusOK, code)
	fc.Advance(5 * time.Minute)
	code = request(t, srv, http.MethodPost, path+"/phases/work", aliceID, "", nil)
	require.Equal(t, http.StatusOK, code)

	// Pause freezes derived timing across a long gap.
	fc.Advance(10 * time.Minute)
	code = request(t, srv, http.MethodPost, path+"/pause", aliceID, "", nil)
	require.Equal(t, http.StatusOK, code)
	fc.Advance(2 * time.Hour)

	var progress session.Progress
	code = request(t, srv, http.MethodGet, path+"/progress", aliceID, "", &progress)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15*time.Minute, progress.TimeRemainingInPhase.Std())

	code = request(t, srv, http.MethodPost, path+"/resume", aliceID, "", nil)
	require.Equal(t, http.StatusOK, code)

	code = request(t, srv, http.MethodGet, path+"/progress", aliceID, "", &progress)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15*time.Minute, progress.TimeRemainingInPhase.Std())

	// Alice ends the session.
	fc.Advance(15 * time.Minute)
	var summary session.Summary
	code = request(t, srv, http.MethodPost, path+"/end", aliceID,
		`{"summaryNote":"shipped it"}`, &summary)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, session.StatusCompleted, summary.Status)
	assert.Equal(t, 2, summary.ParticipantCount)
	assert.Equal(t, "shipped it", summary.SummaryNote)

	// Alice is free to start over.
	code = request(t, srv, http.MethodPost, "/api/v1/sessions", aliceID,
		`{"sessionName":"round two"}`, nil)
	assert.Equal(t, http.StatusCreated, code)
}

func TestRejoinAccounting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, fc := newTestStack(t)

	var created session.Response
	code := request(t, srv, http.MethodPost, "/api/v1/sessions", aliceID,
		`{"sessionName":"focus time"}`, &created)
	require.Equal(t, http.StatusCreated, code)
	path := "/api/v1/sessions/" + created.ID.String()
	joinBody := `{"inviteCode":"` + created.InviteCode + `"}`

	// Bob joins, leaves, and rejoins; membership survives the round trip.
	code = request(t, srv, http.MethodPost, path+"/participants", bobID, joinBody, nil)
	require.Equal(t, http.StatusOK, code)

	fc.Advance(20 * time.Minute)
	code = request(t, srv, http.MethodDelete, path+"/participants/me", bobID, "", nil)
	require.Equal(t, http.StatusOK, code)

	var rejoined session.Response
	code = request(t, srv, http.MethodPost, path+"/participants", bobID, joinBody, &rejoined)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, rejoined.ParticipantCount)

	// Joining twice is rejected.
	code = request(t, srv, http.MethodPost, path+"/participants", bobID, joinBody, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
