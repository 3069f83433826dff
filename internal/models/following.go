package models

import "github.com/google/uuid"

// Following is a directed follow edge: FollowerID follows TargetID.
type Following struct {
	Base
	TargetID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_followings_target_follower;index" json:"target_id"`
	Target     *User     `gorm:"foreignKey:TargetID" json:"target,omitempty"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_followings_target_follower;index" json:"follower_id"`
	Follower   *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
}

// TableName specifies the table name for GORM
func (Following) TableName() string {
	return "followings"
}
