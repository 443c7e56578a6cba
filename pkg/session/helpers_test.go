package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/focusmate/session-service/pkg/clock"
	"github.com/focusmate/session-service/pkg/invite"
	"github.com/focusmate/session-service/pkg/userdir"
)

var testEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// Fixed actors shared across session tests. strangerID is deliberately
// absent from the directory.
var (
	ownerID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	memberID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	thirdID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	strangerID = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

// recordingTasks implements tasks.Service and records every call.
type recordingTasks struct {
	mu sync.Mutex

	completedSet map[uuid.UUID]bool
	failWith     error

	markedCompleted []uuid.UUID
	endReports      int
	lastCompleted   []uuid.UUID
	lastIncomplete  []uuid.UUID
}

func (r *recordingTasks) MarkCompleted(_ context.Context, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.markedCompleted = append(r.markedCompleted, taskID)
	if r.completedSet == nil {
		r.completedSet = make(map[uuid.UUID]bool)
	}
	r.completedSet[taskID] = true
	return nil
}

func (r *recordingTasks) ReportSessionEnd(_ context.Context, _ uuid.UUID, completed, incomplete []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.endReports++
	r.lastCompleted = completed
	r.lastIncomplete = incomplete
	return nil
}

func (r *recordingTasks) Completed(_ context.Context, taskIDs []uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []uuid.UUID
	for _, id := range taskIDs {
		if r.completedSet[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// testEnv bundles a core over the in-memory store with a frozen clock.
type testEnv struct {
	core  *Core
	store *MemoryStore
	clock *clock.Fake
	tasks *recordingTasks
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: NewMemoryStore(),
		clock: clock.NewFake(testEpoch),
		tasks: &recordingTasks{},
	}
	dir := userdir.NewStatic(map[uuid.UUID]string{
		ownerID:  "alice",
		memberID: "bob",
		thirdID:  "carol",
	})
	env.core = NewCore(env.store, env.clock, invite.NewMinter(), dir, env.tasks, DefaultLimits(), nil)
	return env
}

// mustCreate creates a default session owned by ownerID.
func mustCreate(t *testing.T, env *testEnv) *Response {
	t.Helper()
	resp, err := env.core.Create(context.Background(), DefaultCreateRequest("focus time"), ownerID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return resp
}

// mustJoin joins userID to the session via its invite code.
func mustJoin(t *testing.T, env *testEnv, resp *Response, userID uuid.UUID) *Response {
	t.Helper()
	out, err := env.core.Join(context.Background(), resp.ID, userID, resp.InviteCode)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	return out
}
