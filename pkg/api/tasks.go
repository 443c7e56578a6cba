package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type addTaskRequest struct {
	TaskID uuid.UUID `json:"taskId"`
}

func (h *Handler) addTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var body addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TaskID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "taskId is required")
		return
	}

	resp, err := h.core.AddTask(r.Context(), id, actor, body.TaskID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) removeTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	resp, err := h.core.RemoveTask(r.Context(), id, actor, taskID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	resp, err := h.core.MarkTaskCompleted(r.Context(), id, actor, taskID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type taskListResponse struct {
	Tasks []uuid.UUID `json:"tasks"`
	Total int         `json:"total"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	tasks, err := h.core.Tasks(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskListResponse{Tasks: tasks, Total: len(tasks)})
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	p, err := h.core.Progress(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) breakOptions(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	opts, err := h.core.BreakOptionsFor(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}
