package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/api/shared"
	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/service"
	"github.com/chainforum/forum-api/internal/task"
)

// CreateCommentRequest represents the request body for submitting a comment
type CreateCommentRequest struct {
	Content         string `json:"content"          validate:"required,min=1"`
	AuthorAddress   string `json:"author_address"   validate:"required"`
	AuthorName      string `json:"author_name"`
	ParentID        string `json:"parent_id"`
	Image           string `json:"image"`
	TransactionHash string `json:"transaction_hash" validate:"required"`
}

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	submissions service.SubmissionService
	reads       service.ReadService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	submissions service.SubmissionService,
	reads service.ReadService,
) *CommentHandler {
	return &CommentHandler{
		submissions: submissions,
		reads:       reads,
	}
}

// CreateComment handles POST /api/posts/{postID}/comments requests. Like
// post creation, the comment is created asynchronously.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req CreateCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if !domain.IsValidTransactionHash(req.TransactionHash) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Invalid transaction hash: must be 0x followed by 64 hex characters")
		return
	}
	if !domain.IsValidAddress(req.AuthorAddress) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid author address")
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		parsed, err := uuid.Parse(req.ParentID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid parent comment ID")
			return
		}
		parentID = &parsed
	}

	taskID, err := h.submissions.SubmitCommentCreation(r.Context(), task.CommentCreationRequest{
		PostID:          postID,
		ParentID:        parentID,
		Content:         req.Content,
		AuthorAddress:   req.AuthorAddress,
		AuthorName:      req.AuthorName,
		Image:           req.Image,
		TransactionHash: req.TransactionHash,
	})
	if err != nil {
		if errors.Is(err, service.ErrSubmissionRejected) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable,
				"Server is busy, try again later")
			return
		}
		slog.Error("failed to submit comment creation", "error", err, "post_id", postID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit comment")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskSubmissionResponse{
		TaskID: taskID.String(),
		Status: string(task.TaskStatusPending),
	})
}

// ListComments handles GET /api/posts/{postID}/comments requests.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	comments, err := h.reads.ListComments(r.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		slog.Error("failed to list comments", "error", err, "post_id", postID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list comments")
		return
	}

	if comments == nil {
		comments = []*domain.Comment{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, comments)
}
