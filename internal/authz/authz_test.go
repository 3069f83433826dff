package authz

import (
	"testing"

	"twitt/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func user(admin bool) *models.User {
	return &models.User{Base: models.Base{ID: uuid.New()}, IsAdmin: admin}
}

func TestCanAccessPost(t *testing.T) {
	owner := user(false)
	stranger := user(false)
	admin := user(true)
	post := &models.Post{UserID: owner.ID}

	tests := []struct {
		name  string
		actor *models.User
		post  *models.Post
		want  bool
	}{
		{"Owner", owner, post, true},
		{"Admin", admin, post, true},
		{"Stranger", stranger, post, false},
		{"Nil Actor", nil, post, false},
		{"Nil Post", owner, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessPost(tt.actor, tt.post))
		})
	}
}

func TestCanDeleteComment(t *testing.T) {
	author := user(false)
	admin := user(true)
	comment := &models.Comment{UserID: author.ID}

	assert.True(t, CanDeleteComment(author, comment))
	assert.False(t, CanDeleteComment(admin, comment), "admins have no override on comments")
	assert.False(t, CanDeleteComment(user(false), comment))
	assert.False(t, CanDeleteComment(nil, comment))
	assert.False(t, CanDeleteComment(author, nil))
}
