package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/api/shared"
	"github.com/chainforum/forum-api/internal/service"
)

// TaskHandler serves task status polling requests
type TaskHandler struct {
	submissions service.SubmissionService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(submissions service.SubmissionService) *TaskHandler {
	return &TaskHandler{submissions: submissions}
}

// GetTask handles GET /api/tasks/{taskID} requests. The response is the
// full task record: status, result document on completion, failure reason
// on failure.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	record, ok := h.submissions.GetTaskStatus(taskID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, record)
}
