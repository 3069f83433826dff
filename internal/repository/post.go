package repository

import (
	"context"

	"twitt/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Post, error)
	ListFeed(ctx context.Context, followerID uuid.UUID, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post, fields ...string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListFeed returns posts authored by users that followerID follows, newest first.
func (r *postRepository) ListFeed(ctx context.Context, followerID uuid.UUID, limit, offset int) ([]models.Post, error) {
	followed := r.db.Model(&models.Following{}).Select("target_id").Where("follower_id = ?", followerID)

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN (?)", followed).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// Update writes only the named columns, so omitted fields keep their values.
func (r *postRepository) Update(ctx context.Context, post *models.Post, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(post).Select(fields).Updates(post).Error
}

// Delete soft-deletes the post together with its likes and comments.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
