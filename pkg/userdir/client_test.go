package userdir

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestClient_Resolve(t *testing.T) {
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/"+userID.String() {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Resolve(context.Background(), userID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "alice" {
		t.Errorf("Resolve() = %q, want %q", got, "alice")
	}
}

func TestClient_Resolve_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantUnknown bool
	}{
		{"not found maps to unknown user", http.StatusNotFound, "", true},
		{"empty username maps to unknown user", http.StatusOK, `{"username":""}`, true},
		{"server error", http.StatusInternalServerError, "", false},
		{"malformed body", http.StatusOK, "not json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Resolve(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("Resolve() expected error")
			}
			if got := errors.Is(err, ErrUnknownUser); got != tt.wantUnknown {
				t.Errorf("errors.Is(err, ErrUnknownUser) = %v, want %v (err = %v)", got, tt.wantUnknown, err)
			}
		})
	}
}

func TestClient_Resolve_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.Resolve(context.Background(), uuid.New()); err == nil {
		t.Fatal("Resolve() expected error for unreachable service")
	}
}

func TestStatic_Resolve(t *testing.T) {
	userID := uuid.New()
	dir := NewStatic(map[uuid.UUID]string{userID: "alice"})

	got, err := dir.Resolve(context.Background(), userID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "alice" {
		t.Errorf("Resolve() = %q, want %q", got, "alice")
	}

	_, err = dir.Resolve(context.Background(), uuid.New())
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("Resolve() error = %v, want ErrUnknownUser", err)
	}
}
