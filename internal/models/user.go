package models

import "github.com/google/uuid"

// User represents an account. Email is the login key.
type User struct {
	Base
	Username  string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Password  string `gorm:"not null" json:"-"`
	IsAdmin   bool   `gorm:"not null;default:false" json:"is_admin"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// DisplayName is the name used in notification messages.
func (u *User) DisplayName() string {
	return u.Email
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}
