package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforum/forum-api/internal/domain"
)

func validCreateCommentBody() map[string]any {
	return map[string]any{
		"content":          "a reply",
		"author_address":   testAuthor,
		"author_name":      "bob",
		"transaction_hash": testHash,
	}
}

func TestCreateComment_Accepted(t *testing.T) {
	subs := newStubSubmissionService()
	router := newTestRouter(subs, &stubReadService{})

	postID := uuid.New()
	rr := postJSON(t, router, "/api/posts/"+postID.String()+"/comments", validCreateCommentBody())

	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp TaskSubmissionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, subs.taskID.String(), resp.TaskID)

	require.Len(t, subs.commentReqs, 1)
	assert.Equal(t, postID, subs.commentReqs[0].PostID)
	assert.Nil(t, subs.commentReqs[0].ParentID)
}

func TestCreateComment_WithParent(t *testing.T) {
	subs := newStubSubmissionService()
	router := newTestRouter(subs, &stubReadService{})

	parentID := uuid.New()
	body := validCreateCommentBody()
	body["parent_id"] = parentID.String()

	rr := postJSON(t, router, "/api/posts/"+uuid.NewString()+"/comments", body)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, subs.commentReqs, 1)
	require.NotNil(t, subs.commentReqs[0].ParentID)
	assert.Equal(t, parentID, *subs.commentReqs[0].ParentID)
}

func TestCreateComment_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		mutate func(body map[string]any)
	}{
		{
			name:   "invalid post id",
			path:   "/api/posts/not-a-uuid/comments",
			mutate: func(map[string]any) {},
		},
		{
			name:   "missing transaction hash",
			mutate: func(b map[string]any) { delete(b, "transaction_hash") },
		},
		{
			name:   "short transaction hash",
			mutate: func(b map[string]any) { b["transaction_hash"] = "0xabc" },
		},
		{
			name:   "empty content",
			mutate: func(b map[string]any) { b["content"] = "" },
		},
		{
			name:   "invalid parent id",
			mutate: func(b map[string]any) { b["parent_id"] = "nope" },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subs := newStubSubmissionService()
			router := newTestRouter(subs, &stubReadService{})

			path := tc.path
			if path == "" {
				path = "/api/posts/" + uuid.NewString() + "/comments"
			}

			body := validCreateCommentBody()
			tc.mutate(body)

			rr := postJSON(t, router, path, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, subs.commentReqs)
		})
	}
}

func TestListComments(t *testing.T) {
	post, err := domain.NewPost("a title", "content", testAuthor, "alice", nil, "")
	require.NoError(t, err)

	comment, err := domain.NewComment(post.ID, nil, "a reply", testAuthor, "bob", "")
	require.NoError(t, err)

	router := newTestRouter(newStubSubmissionService(), &stubReadService{
		posts:    []*domain.Post{post},
		comments: []*domain.Comment{comment},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/"+post.ID.String()+"/comments", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var comments []*domain.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
}

func TestListComments_UnknownPost(t *testing.T) {
	router := newTestRouter(newStubSubmissionService(), &stubReadService{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/"+uuid.NewString()+"/comments", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
