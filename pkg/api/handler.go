// Package api provides the REST boundary over the session core.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/focusmate/session-service/pkg/session"
)

// Handler exposes the session core as a REST API.
type Handler struct {
	core   *session.Core
	router chi.Router
}

// NewHandler creates the API handler with routes registered.
func NewHandler(core *session.Core, authCfg AuthConfig) *Handler {
	h := &Handler{
		core:   core,
		router: chi.NewRouter(),
	}

	h.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(ActorMiddleware(authCfg))

		r.Post("/", h.createSession)
		r.Get("/current", h.currentSession)
		r.Get("/invite/{code}", h.sessionByInviteCode)

		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", h.updateSession)
			r.Delete("/", h.deleteSession)

			r.Post("/pause", h.pauseSession)
			r.Post("/resume", h.resumeSession)
			r.Post("/end", h.endSession)

			r.Post("/phases/work", h.startWorkPhase)
			r.Post("/phases/break", h.startBreakPhase)
			r.Post("/phases/complete-work", h.completeWorkPhase)
			r.Post("/phases/skip-break", h.skipBreak)

			r.Post("/participants", h.joinSession)
			r.Delete("/participants/me", h.leaveSession)
			r.Delete("/participants/{userID}", h.removeUser)
			r.Get("/participants", h.listParticipants)
			r.Post("/invite", h.inviteUser)
			r.Get("/can-join", h.canJoin)
			r.Get("/is-owner", h.isOwner)

			r.Post("/tasks", h.addTask)
			r.Delete("/tasks/{taskID}", h.removeTask)
			r.Post("/tasks/{taskID}/complete", h.completeTask)
			r.Get("/tasks", h.listTasks)

			r.Get("/progress", h.progress)
			r.Get("/break-options", h.breakOptions)
		})
	})

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps core error kinds to HTTP status codes. Anything not
// recognised is treated as a transient backend failure.
func respondError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidData):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrConflictingActiveSession),
		errors.Is(err, session.ErrCapacityExceeded):
		status = http.StatusConflict
	case errors.Is(err, session.ErrInviteCodeInvalid):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
