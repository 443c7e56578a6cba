package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type actorKey struct{}

// actorFrom returns the authenticated user id stored on the context.
func actorFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok
}

// withActor stores the authenticated user id on the context.
func withActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// AuthConfig configures actor extraction.
type AuthConfig struct {
	// SigningKey verifies HS256 bearer tokens whose subject is the user id.
	SigningKey []byte

	// AllowAnonymous accepts an X-User-ID header in place of a token.
	// Development only.
	AllowAnonymous bool
}

// ActorMiddleware resolves the acting user from the Authorization header
// and stores their id on the request context. Requests without a resolvable
// actor are rejected before any handler runs.
func ActorMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractActor(r, cfg)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), id)))
		})
	}
}

func extractActor(r *http.Request, cfg AuthConfig) (uuid.UUID, error) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return actorFromToken(strings.TrimPrefix(authHeader, "Bearer "), cfg.SigningKey)
	}

	if cfg.AllowAnonymous {
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, fmt.Errorf("invalid X-User-ID header")
			}
			return id, nil
		}
	}

	return uuid.Nil, fmt.Errorf("missing authentication token")
}

func actorFromToken(raw string, key []byte) (uuid.UUID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a user id")
	}
	return id, nil
}
