package server

import (
	"net/http"
	"strings"
	"testing"

	"twitt/internal/models"
	"twitt/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments_CreateReplyListDelete(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.user(t, "alice@x.com")
	_, bobToken := env.user(t, "bob@x.com")
	post := testutil.CreatePost(t, env.db, alice.ID, "discuss")
	postPath := "/api/posts/" + post.ID.String() + "/comments"

	res := env.do(t, http.MethodPost, postPath, bobToken, map[string]string{"comment": "first!"})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	assert.Equal(t, "Comment created successfully", res.Body.Message)
	var parent models.Comment
	res.data(t, &parent)
	assert.Equal(t, post.ID, parent.PostID)

	res = env.do(t, http.MethodPost, "/api/comments/"+parent.ID.String()+"/replies", aliceToken,
		map[string]string{"comment": "thanks"})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	assert.Equal(t, "Reply comment created successfully", res.Body.Message)
	var reply models.Comment
	res.data(t, &reply)
	assert.Equal(t, post.ID, reply.PostID)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, parent.ID, *reply.ReplyToID)

	res = env.do(t, http.MethodGet, postPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var listed []models.Comment
	res.data(t, &listed)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].Replies, 1)
	assert.Equal(t, "thanks", listed[0].Replies[0].Comment)

	// only the author may delete, even the post owner may not
	res = env.do(t, http.MethodDelete, "/api/comments/"+parent.ID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = env.do(t, http.MethodDelete, "/api/comments/"+parent.ID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Comment deleted successfully", res.Body.Message)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestComments_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.user(t, "alice@x.com")
	post := testutil.CreatePost(t, env.db, alice.ID, "discuss")
	postPath := "/api/posts/" + post.ID.String() + "/comments"

	tests := []struct {
		name       string
		path       string
		body       map[string]string
		wantStatus int
		wantMsg    string
	}{
		{"empty comment", postPath, map[string]string{"comment": "  "}, http.StatusBadRequest, "Please add comment."},
		{"too long", postPath, map[string]string{"comment": strings.Repeat("a", 256)}, http.StatusBadRequest, "Comment must not exceed 255 characters."},
		{"unknown post", "/api/posts/" + uuid.NewString() + "/comments", map[string]string{"comment": "hi"}, http.StatusNotFound, "Post does not exists."},
		{"bad post id", "/api/posts/nope/comments", map[string]string{"comment": "hi"}, http.StatusBadRequest, "Post Id is not a valid UUID"},
		{"unknown parent", "/api/comments/" + uuid.NewString() + "/replies", map[string]string{"comment": "hi"}, http.StatusNotFound, "comment does not exists"},
		{"bad parent id", "/api/comments/nope/replies", map[string]string{"comment": "hi"}, http.StatusBadRequest, "Comment Id is not a valid UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.do(t, http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantMsg, res.Body.Message)
		})
	}

	res := env.do(t, http.MethodPost, postPath, token, map[string]string{"comment": strings.Repeat("a", 255)})
	assert.Equal(t, http.StatusCreated, res.Status)
}
