package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"os"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/migrations"
)

// isIntegrationTestEnvironment returns true if the environment is configured
// for running integration tests with a database connection
func isIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// openTestDatabase connects to the integration database and applies the
// embedded migrations so the schema matches what the stores expect.
func openTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, dbURL, "DATABASE_URL environment variable is required for this test")

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing database connection: %v", err)
		}
	})

	require.NoError(t, db.Ping(), "Failed to ping database")

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"), "Failed to set goose dialect")
	require.NoError(t, goose.Up(db, "."), "Failed to apply migrations")

	return db
}

// randomTestAddress generates a unique ethereum-shaped address so concurrent
// test runs against a shared database never collide on the users table.
func randomTestAddress(t *testing.T) string {
	t.Helper()

	buf := make([]byte, 20)
	_, err := rand.Read(buf)
	require.NoError(t, err, "Failed to generate random address")
	return "0x" + hex.EncodeToString(buf)
}

// deleteTestAuthor removes everything the test created for the author.
// Comments cascade off posts, but posts and users must go in order.
func deleteTestAuthor(t *testing.T, db *sql.DB, address string) {
	t.Helper()

	statements := []string{
		`DELETE FROM posts WHERE author_id IN (SELECT id FROM users WHERE ethereum_address = $1)`,
		`DELETE FROM users WHERE ethereum_address = $1`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt, address); err != nil {
			t.Logf("Error cleaning up test author %s: %v", address, err)
		}
	}
}

// Integration test pinning the trailing-window comparison in the post
// duplicate guard: an identical submission is flagged inside the window and
// admitted again once the earlier post has aged past it.
func TestPostgresPostStore_HasRecentDuplicate_WindowBoundary(t *testing.T) {
	if !isIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - DATABASE_URL environment variable required")
	}

	db := openTestDatabase(t)
	ctx := context.Background()
	postStore := NewPostgresPostStore(db, nil)

	author := randomTestAddress(t)
	t.Cleanup(func() { deleteTestAuthor(t, db, author) })

	content := "Window boundary content " + author

	post, err := domain.NewPost("Window boundary post", content, author, "tester", nil, "")
	require.NoError(t, err, "Failed to build post")
	require.NoError(t, postStore.Create(ctx, post), "Failed to create post")

	// Fresh submission of the same content is inside the window.
	dup, err := postStore.HasRecentDuplicate(ctx, author, content, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, dup, "Identical content just submitted should be flagged as a duplicate")

	// Different content from the same author never trips the guard.
	dup, err = postStore.HasRecentDuplicate(ctx, author, content+" changed", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, dup, "Different content should not be flagged")

	// Same content from another author never trips the guard.
	dup, err = postStore.HasRecentDuplicate(ctx, randomTestAddress(t), content, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, dup, "Another author's identical content should not be flagged")

	// Age the post past the window and re-check both sides of the cutoff.
	backdated := time.Now().UTC().Add(-10 * time.Minute)
	_, err = db.Exec(`UPDATE posts SET created_at = $1 WHERE id = $2`, backdated, post.ID)
	require.NoError(t, err, "Failed to backdate post")

	dup, err = postStore.HasRecentDuplicate(ctx, author, content, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, dup, "Content older than the window should be admitted again")

	dup, err = postStore.HasRecentDuplicate(ctx, author, content, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, dup, "A wider window should still cover the backdated post")
}

// Integration test for the comment duplicate guard: same window semantics as
// posts, scoped to the parent post.
func TestPostgresCommentStore_HasRecentDuplicate_WindowBoundary(t *testing.T) {
	if !isIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - DATABASE_URL environment variable required")
	}

	db := openTestDatabase(t)
	ctx := context.Background()
	postStore := NewPostgresPostStore(db, nil)
	commentStore := NewPostgresCommentStore(db, nil)

	author := randomTestAddress(t)
	t.Cleanup(func() { deleteTestAuthor(t, db, author) })

	post, err := domain.NewPost("Parent post", "Parent content "+author, author, "tester", nil, "")
	require.NoError(t, err, "Failed to build parent post")
	require.NoError(t, postStore.Create(ctx, post), "Failed to create parent post")

	otherPost, err := domain.NewPost("Other post", "Other content "+author, author, "tester", nil, "")
	require.NoError(t, err, "Failed to build other post")
	require.NoError(t, postStore.Create(ctx, otherPost), "Failed to create other post")

	content := "Window boundary comment " + author

	comment, err := domain.NewComment(post.ID, nil, content, author, "tester", "")
	require.NoError(t, err, "Failed to build comment")
	require.NoError(t, commentStore.Create(ctx, comment), "Failed to create comment")

	dup, err := commentStore.HasRecentDuplicate(ctx, author, content, post.ID, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, dup, "Identical comment just submitted should be flagged as a duplicate")

	// The guard is scoped to the parent post.
	dup, err = commentStore.HasRecentDuplicate(ctx, author, content, otherPost.ID, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, dup, "Identical content under a different post should not be flagged")

	backdated := time.Now().UTC().Add(-10 * time.Minute)
	_, err = db.Exec(`UPDATE comments SET created_at = $1 WHERE id = $2`, backdated, comment.ID)
	require.NoError(t, err, "Failed to backdate comment")

	dup, err = commentStore.HasRecentDuplicate(ctx, author, content, post.ID, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, dup, "Comment older than the window should be admitted again")

	dup, err = commentStore.HasRecentDuplicate(ctx, author, content, post.ID, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, dup, "A wider window should still cover the backdated comment")
}
