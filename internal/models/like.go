package models

import "github.com/google/uuid"

// Like represents a user's like on a post.
// The combination of UserID and PostID is unique.
type Like struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}
