package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Post
var (
	ErrEmptyPostID            = errors.New("post ID cannot be empty")
	ErrEmptyPostTitle         = errors.New("post title cannot be empty")
	ErrEmptyPostContent       = errors.New("post content cannot be empty")
	ErrInvalidPostAuthor      = errors.New("post author address is invalid")
	ErrPostTitleTooLong       = errors.New("post title exceeds maximum length")
	ErrMissingTransactionHash = errors.New("transaction hash is required")
)

// MaxPostTitleLength is the upper bound on post titles.
const MaxPostTitleLength = 200

// Post represents a user-submitted forum post. Creation is authorized by a
// verified on-chain transaction; TransactionHash is attached after the
// transaction has been verified and consumed.
type Post struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	AuthorAddress   string    `json:"author_address"`
	AuthorName      string    `json:"author_name,omitempty"`
	Tags            []string  `json:"tags"`
	Image           string    `json:"image,omitempty"`
	ContentHash     string    `json:"content_hash"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	Likes           int       `json:"likes"`
	CommentsCount   int       `json:"comments_count"`
	Views           int       `json:"views"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewPost creates a new Post with a generated ID, a SHA-256 content hash,
// current timestamps, and zeroed counters.
// Returns an error if validation fails.
func NewPost(title, content, authorAddress, authorName string, tags []string, image string) (*Post, error) {
	now := time.Now().UTC()
	post := &Post{
		ID:            uuid.New(),
		Title:         title,
		Content:       content,
		AuthorAddress: authorAddress,
		AuthorName:    authorName,
		Tags:          tags,
		Image:         image,
		ContentHash:   HashContent(content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	return post, nil
}

// Validate checks if the Post has valid data.
// Returns an error if any field fails validation.
func (p *Post) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPostID
	}

	if p.Title == "" {
		return ErrEmptyPostTitle
	}

	if len(p.Title) > MaxPostTitleLength {
		return ErrPostTitleTooLong
	}

	if p.Content == "" {
		return ErrEmptyPostContent
	}

	if !IsValidAddress(p.AuthorAddress) {
		return ErrInvalidPostAuthor
	}

	return nil
}
