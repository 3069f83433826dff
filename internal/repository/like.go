package repository

import (
	"context"

	"twitt/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository persists likes and the denormalized post counter.
type LikeRepository interface {
	// Create inserts the like if absent. created is false when the pair already existed.
	Create(ctx context.Context, userID, postID uuid.UUID) (created bool, err error)
	// Delete removes the like. deleted is false when there was nothing to remove.
	Delete(ctx context.Context, userID, postID uuid.UUID) (deleted bool, err error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Create relies on idx_likes_user_post: concurrent likes for the same pair
// insert at most one row, and only the inserting call bumps the counter.
func (r *likeRepository) Create(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{UserID: userID, PostID: postID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("no_of_likes", gorm.Expr("no_of_likes + ?", 1)).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete hard-deletes the row so the pair can be liked again. The post
// counter is left untouched.
func (r *likeRepository) Delete(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
