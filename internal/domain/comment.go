package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Comment
var (
	ErrEmptyCommentID       = errors.New("comment ID cannot be empty")
	ErrEmptyCommentPostID   = errors.New("comment post ID cannot be empty")
	ErrEmptyCommentContent  = errors.New("comment content cannot be empty")
	ErrInvalidCommentAuthor = errors.New("comment author address is invalid")
)

// Comment represents a reply to a post, optionally nested under a parent
// comment. Like posts, comments are authorized by a verified on-chain
// transaction.
type Comment struct {
	ID              uuid.UUID  `json:"id"`
	PostID          uuid.UUID  `json:"post_id"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	Content         string     `json:"content"`
	AuthorAddress   string     `json:"author_address"`
	AuthorName      string     `json:"author_name,omitempty"`
	Image           string     `json:"image,omitempty"`
	ContentHash     string     `json:"content_hash"`
	TransactionHash string     `json:"transaction_hash,omitempty"`
	Likes           int        `json:"likes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewComment creates a new Comment with a generated ID, a SHA-256 content
// hash, and current timestamps.
// Returns an error if validation fails.
func NewComment(postID uuid.UUID, parentID *uuid.UUID, content, authorAddress, authorName, image string) (*Comment, error) {
	now := time.Now().UTC()
	comment := &Comment{
		ID:            uuid.New(),
		PostID:        postID,
		ParentID:      parentID,
		Content:       content,
		AuthorAddress: authorAddress,
		AuthorName:    authorName,
		Image:         image,
		ContentHash:   HashContent(content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}

	return comment, nil
}

// Validate checks if the Comment has valid data.
// Returns an error if any field fails validation.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCommentID
	}

	if c.PostID == uuid.Nil {
		return ErrEmptyCommentPostID
	}

	if c.Content == "" {
		return ErrEmptyCommentContent
	}

	if !IsValidAddress(c.AuthorAddress) {
		return ErrInvalidCommentAuthor
	}

	return nil
}
