package models

import "github.com/google/uuid"

// Comment is a comment on a post. ReplyToID links a reply to its parent.
type Comment struct {
	Base
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	ReplyToID *uuid.UUID `gorm:"type:uuid;index" json:"reply_to,omitempty"`
	Comment   string     `gorm:"type:text;not null" json:"comment"`
	Replies   []Comment  `gorm:"foreignKey:ReplyToID" json:"replies,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// AuthoredBy reports whether userID wrote the comment.
func (c *Comment) AuthoredBy(userID uuid.UUID) bool {
	return c != nil && c.UserID == userID
}
