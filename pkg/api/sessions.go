package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/focusmate/session-service/pkg/session"
)

// createSessionRequest is the JSON body for creating a session. Omitted
// durations fall back to the standard pomodoro defaults.
type createSessionRequest struct {
	SessionName       string      `json:"sessionName"`
	Description       string      `json:"description"`
	MaxParticipants   *int        `json:"maxParticipants"`
	WorkMinutes       *int        `json:"workDurationMinutes"`
	ShortBreakMinutes *int        `json:"shortBreakMinutes"`
	LongBreakMinutes  *int        `json:"longBreakMinutes"`
	ScheduledTime     *time.Time  `json:"scheduledTime"`
	TaskIDs           []uuid.UUID `json:"taskIds"`
}

// updateSessionRequest is the JSON patch body; absent fields stay unchanged.
type updateSessionRequest struct {
	SessionName       *string `json:"sessionName"`
	Description       *string `json:"description"`
	MaxParticipants   *int    `json:"maxParticipants"`
	WorkMinutes       *int    `json:"workDurationMinutes"`
	ShortBreakMinutes *int    `json:"shortBreakMinutes"`
	LongBreakMinutes  *int    `json:"longBreakMinutes"`
}

// endSessionRequest is the optional wrap-up body for ending a session.
type endSessionRequest struct {
	SummaryNote       string      `json:"summaryNote"`
	CompletedTaskIDs  []uuid.UUID `json:"completedTaskIds"`
	IncompleteTaskIDs []uuid.UUID `json:"incompleteTaskIds"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}

	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := session.DefaultCreateRequest(body.SessionName)
	req.Description = body.Description
	req.ScheduledTime = body.ScheduledTime
	req.TaskIDs = body.TaskIDs
	if body.MaxParticipants != nil {
		req.MaxParticipants = *body.MaxParticipants
	}
	if body.WorkMinutes != nil {
		req.WorkMinutes = *body.WorkMinutes
	}
	if body.ShortBreakMinutes != nil {
		req.ShortBreakMinutes = *body.ShortBreakMinutes
	}
	if body.LongBreakMinutes != nil {
		req.LongBreakMinutes = *body.LongBreakMinutes
	}

	resp, err := h.core.Create(r.Context(), req, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	resp, err := h.core.CurrentActive(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) sessionByInviteCode(w http.ResponseWriter, r *http.Request) {
	resp, err := h.core.ByInviteCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var body updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := session.UpdateRequest{
		Name:              optFrom(body.SessionName),
		Description:       optFrom(body.Description),
		MaxParticipants:   optFrom(body.MaxParticipants),
		WorkMinutes:       optFrom(body.WorkMinutes),
		ShortBreakMinutes: optFrom(body.ShortBreakMinutes),
		LongBreakMinutes:  optFrom(body.LongBreakMinutes),
	}

	resp, err := h.core.Update(r.Context(), id, patch, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.core.Delete(r.Context(), id, actor); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) pauseSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.core.Pause)
}

func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.core.Resume)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var body endSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	summary, err := h.core.End(r.Context(), id, actor, session.EndRequest{
		SummaryNote:       body.SummaryNote,
		CompletedTaskIDs:  body.CompletedTaskIDs,
		IncompleteTaskIDs: body.IncompleteTaskIDs,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// lifecycleOp handles the pause/resume pattern shared by several routes.
func (h *Handler) lifecycleOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, actorID uuid.UUID) (*session.Response, error)) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	resp, err := op(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// pathID parses a UUID path parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// optFrom converts a JSON pointer field to the core's explicit optional.
func optFrom[T any](p *T) session.Opt[T] {
	if p == nil {
		return session.Keep[T]()
	}
	return session.Set(*p)
}
