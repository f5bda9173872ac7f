package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/api/shared"
	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/service"
	"github.com/chainforum/forum-api/internal/task"
)

// CreatePostRequest represents the request body for submitting a new post
type CreatePostRequest struct {
	Title           string   `json:"title"            validate:"required,min=1,max=200"`
	Content         string   `json:"content"          validate:"required,min=1"`
	AuthorAddress   string   `json:"author_address"   validate:"required"`
	AuthorName      string   `json:"author_name"`
	Tags            []string `json:"tags"`
	Image           string   `json:"image"`
	TransactionHash string   `json:"transaction_hash" validate:"required"`
}

// TaskSubmissionResponse is returned for accepted submissions. Clients poll
// GET /api/tasks/{taskID} with the returned id.
type TaskSubmissionResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	submissions service.SubmissionService
	reads       service.ReadService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(submissions service.SubmissionService, reads service.ReadService) *PostHandler {
	return &PostHandler{
		submissions: submissions,
		reads:       reads,
	}
}

// CreatePost handles POST /api/posts requests. The post is not created
// synchronously; a task id is returned with 202 Accepted.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Cheap shape checks happen at admission; everything that needs the
	// chain is deferred to the worker.
	if !domain.IsValidTransactionHash(req.TransactionHash) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Invalid transaction hash: must be 0x followed by 64 hex characters")
		return
	}
	if !domain.IsValidAddress(req.AuthorAddress) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid author address")
		return
	}

	taskID, err := h.submissions.SubmitPostCreation(r.Context(), task.PostCreationRequest{
		Title:           req.Title,
		Content:         req.Content,
		AuthorAddress:   req.AuthorAddress,
		AuthorName:      req.AuthorName,
		Tags:            req.Tags,
		Image:           req.Image,
		TransactionHash: req.TransactionHash,
	})
	if err != nil {
		if errors.Is(err, service.ErrSubmissionRejected) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable,
				"Server is busy, try again later")
			return
		}
		slog.Error("failed to submit post creation", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskSubmissionResponse{
		TaskID: taskID.String(),
		Status: string(task.TaskStatusPending),
	})
}

// ListPosts handles GET /api/posts requests with limit/offset pagination.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", service.DefaultPageSize)
	offset := queryInt(r, "offset", 0)

	posts, err := h.reads.ListPosts(r.Context(), limit, offset)
	if err != nil {
		slog.Error("failed to list posts", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	if posts == nil {
		posts = []*domain.Post{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, posts)
}

// GetPost handles GET /api/posts/{postID} requests.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.reads.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		slog.Error("failed to get post", "error", err, "post_id", postID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to get post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, post)
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
