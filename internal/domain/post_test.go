package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthor = "0xAAaa00000000000000000000000000000000bbBB"

func testTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewPost(t *testing.T) {
	post, err := NewPost("Title", "Body", testAuthor, "alice", []string{"go"}, "")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, "Title", post.Title)
	assert.Equal(t, "Body", post.Content)
	assert.Equal(t, HashContent("Body"), post.ContentHash)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Views)
	assert.Zero(t, post.CommentsCount)
	assert.Empty(t, post.TransactionHash)
	assert.False(t, post.CreatedAt.IsZero())
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)
}

func TestPostValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Post)
		wantErr error
	}{
		{
			name:    "valid post",
			mutate:  func(p *Post) {},
			wantErr: nil,
		},
		{
			name:    "empty ID",
			mutate:  func(p *Post) { p.ID = uuid.Nil },
			wantErr: ErrEmptyPostID,
		},
		{
			name:    "empty title",
			mutate:  func(p *Post) { p.Title = "" },
			wantErr: ErrEmptyPostTitle,
		},
		{
			name:    "title too long",
			mutate:  func(p *Post) { p.Title = strings.Repeat("x", MaxPostTitleLength+1) },
			wantErr: ErrPostTitleTooLong,
		},
		{
			name:    "empty content",
			mutate:  func(p *Post) { p.Content = "" },
			wantErr: ErrEmptyPostContent,
		},
		{
			name:    "bad author address",
			mutate:  func(p *Post) { p.AuthorAddress = "not-an-address" },
			wantErr: ErrInvalidPostAuthor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := NewPost("Title", "Body", testAuthor, "", nil, "")
			require.NoError(t, err)

			tt.mutate(post)
			err = post.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewComment(t *testing.T) {
	postID := uuid.New()
	parentID := uuid.New()

	comment, err := NewComment(postID, &parentID, "reply body", testAuthor, "bob", "")
	require.NoError(t, err)

	assert.Equal(t, postID, comment.PostID)
	require.NotNil(t, comment.ParentID)
	assert.Equal(t, parentID, *comment.ParentID)
	assert.Equal(t, HashContent("reply body"), comment.ContentHash)

	_, err = NewComment(uuid.Nil, nil, "body", testAuthor, "", "")
	assert.ErrorIs(t, err, ErrEmptyCommentPostID)

	_, err = NewComment(postID, nil, "", testAuthor, "", "")
	assert.ErrorIs(t, err, ErrEmptyCommentContent)
}

func TestHashContent(t *testing.T) {
	// Hex-encoded SHA-256 is 64 characters and stable for identical input.
	h1 := HashContent("hello")
	h2 := HashContent("hello")
	h3 := HashContent("world")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestAddressAndHashValidation(t *testing.T) {
	assert.True(t, IsValidAddress(testAuthor))
	assert.False(t, IsValidAddress("0x123"))
	assert.False(t, IsValidAddress(strings.Repeat("a", 42)))
	assert.False(t, IsValidAddress("0x"+strings.Repeat("g", 40)))

	assert.True(t, IsValidTransactionHash("0x"+strings.Repeat("ab", 32)))
	assert.False(t, IsValidTransactionHash("0x"+strings.Repeat("ab", 31)))
	assert.False(t, IsValidTransactionHash(""))
}

func TestNewConsumedTransaction(t *testing.T) {
	txHash := "0x" + strings.Repeat("01", 32)
	entityID := uuid.New()

	ct, err := NewConsumedTransaction(txHash, TransactionKindPost, testAuthor, 42, testTime(t), entityID)
	require.NoError(t, err)
	assert.Equal(t, txHash, ct.TransactionHash)
	assert.Equal(t, entityID, ct.EntityID)
	assert.False(t, ct.VerifiedAt.IsZero())

	_, err = NewConsumedTransaction("bogus", TransactionKindPost, testAuthor, 42, testTime(t), entityID)
	assert.ErrorIs(t, err, ErrInvalidTransactionHash)

	_, err = NewConsumedTransaction(txHash, TransactionKind("LIKE"), testAuthor, 42, testTime(t), entityID)
	assert.ErrorIs(t, err, ErrInvalidTransactionKind)

	_, err = NewConsumedTransaction(txHash, TransactionKindComment, testAuthor, 42, testTime(t), uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyEntityID)
}
