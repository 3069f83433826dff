package models

import "github.com/google/uuid"

// Post is an image with a caption. NoOfLikes is a denormalized counter
// that is incremented on like and never decremented on dislike.
type Post struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Image     string    `gorm:"size:512;not null" json:"-"`
	ImageURL  string    `gorm:"size:1024;not null" json:"image"`
	Caption   string    `gorm:"type:text" json:"caption"`
	NoOfLikes int64     `gorm:"not null;default:0" json:"no_of_likes"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// OwnedBy reports whether userID created the post.
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p != nil && p.UserID == userID
}
