package api

import (
	"encoding/json"
	"net/http"

	"github.com/focusmate/session-service/pkg/session"
)

type startBreakRequest struct {
	BreakType session.Phase `json:"breakType"`
}

func (h *Handler) startWorkPhase(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.core.StartWorkPhase)
}

func (h *Handler) startBreakPhase(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var body startBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.core.StartBreakPhase(r.Context(), id, actor, body.BreakType)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) completeWorkPhase(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.core.CompleteWorkPhase)
}

func (h *Handler) skipBreak(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, h.core.SkipBreak)
}
