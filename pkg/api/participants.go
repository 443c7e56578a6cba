package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type joinSessionRequest struct {
	InviteCode string `json:"inviteCode"`
}

func (h *Handler) joinSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var body joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "inviteCode is required")
		return
	}

	resp, err := h.core.Join(r.Context(), id, actor, body.InviteCode)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) leaveSession(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.core.Leave(r.Context(), id, actor); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	target, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.core.RemoveUser(r.Context(), id, actor, target); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type participantListResponse struct {
	Participants []uuid.UUID `json:"participants"`
	Total        int         `json:"total"`
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	ids, err := h.core.Participants(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participantListResponse{Participants: ids, Total: len(ids)})
}

func (h *Handler) inviteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	resp, err := h.core.Invite(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) canJoin(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	ok, err := h.core.CanJoin(r.Context(), id, actor, r.URL.Query().Get("code"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canJoin": ok})
}

func (h *Handler) isOwner(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	ok, err := h.core.IsOwner(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isOwner": ok})
}
