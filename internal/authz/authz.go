// Package authz holds the ownership rules for posts and comments.
package authz

import (
	"twitt/internal/models"
)

// CanAccessPost grants admins and the post owner. Missing inputs deny.
func CanAccessPost(actor *models.User, post *models.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	return actor.IsAdmin || post.OwnedBy(actor.ID)
}

// CanDeleteComment grants only the comment author. Admins get no override here.
func CanDeleteComment(actor *models.User, comment *models.Comment) bool {
	if actor == nil || comment == nil {
		return false
	}
	return comment.AuthoredBy(actor.ID)
}
