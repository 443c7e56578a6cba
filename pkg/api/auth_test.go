package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, key []byte, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(key)
	require.NoError(t, err)
	return raw
}

// echoActor responds with the actor id the middleware resolved.
func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := actorFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id.String()))
	})
}

func TestActorMiddleware_BearerToken(t *testing.T) {
	userID := uuid.New()
	mw := ActorMiddleware(AuthConfig{SigningKey: testSigningKey})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSigningKey, userID.String()))

	w := httptest.NewRecorder()
	mw(echoActor()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestActorMiddleware_Rejections(t *testing.T) {
	mw := ActorMiddleware(AuthConfig{SigningKey: testSigningKey})

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"wrong signing key", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, []byte("another-key-entirely-32-bytes-xx"), uuid.NewString()))
		}},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.token")
		}},
		{"subject is not a uuid", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, testSigningKey, "alice"))
		}},
		{"anonymous header without allow_anonymous", func(r *http.Request) {
			r.Header.Set("X-User-ID", uuid.NewString())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			tt.setup(req)

			w := httptest.NewRecorder()
			mw(echoActor()).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestActorMiddleware_AnonymousHeader(t *testing.T) {
	userID := uuid.New()
	mw := ActorMiddleware(AuthConfig{AllowAnonymous: true})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-User-ID", userID.String())

	w := httptest.NewRecorder()
	mw(echoActor()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestActorMiddleware_AnonymousInvalidID(t *testing.T) {
	mw := ActorMiddleware(AuthConfig{AllowAnonymous: true})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-User-ID", "not-a-uuid")

	w := httptest.NewRecorder()
	mw(echoActor()).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
