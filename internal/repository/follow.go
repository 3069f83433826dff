package repository

import (
	"context"

	"twitt/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists following edges. An edge with FollowerID f and
// TargetID t means f follows t.
type FollowRepository interface {
	// Create inserts the edge if absent and returns the stored edge.
	// created is false when the pair already existed.
	Create(ctx context.Context, followerID, targetID uuid.UUID) (edge *models.Following, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Following, error)
	// DeleteByID removes an edge by id, only when followerID is its follower.
	DeleteByID(ctx context.Context, edgeID, followerID uuid.UUID) (bool, error)
	DeleteByTarget(ctx context.Context, followerID, targetID uuid.UUID) (bool, error)
	// FollowerIDs pages through the ids of users following targetID, ordered by id.
	FollowerIDs(ctx context.Context, targetID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error)
	ListFollowers(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Following, error)
	ListFollowing(ctx context.Context, followerID uuid.UUID, limit, offset int) ([]models.Following, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, targetID uuid.UUID) (*models.Following, bool, error) {
	edge := models.Following{FollowerID: followerID, TargetID: targetID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target_id"}, {Name: "follower_id"}},
		DoNothing: true,
	}).Create(&edge)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &edge, true, nil
	}

	var existing models.Following
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND target_id = ?", followerID, targetID).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *followRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Following, error) {
	var edge models.Following
	if err := r.db.WithContext(ctx).First(&edge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *followRepository) DeleteByID(ctx context.Context, edgeID, followerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND follower_id = ?", edgeID, followerID).
		Delete(&models.Following{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) DeleteByTarget(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("follower_id = ? AND target_id = ?", followerID, targetID).
		Delete(&models.Following{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) FollowerIDs(ctx context.Context, targetID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&models.Following{}).Where("target_id = ?", targetID)
	if after != uuid.Nil {
		q = q.Where("follower_id > ?", after)
	}
	var ids []uuid.UUID
	err := q.Order("follower_id ASC").Limit(limit).Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *followRepository) ListFollowers(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Following, error) {
	var edges []models.Following
	err := r.db.WithContext(ctx).
		Preload("Follower").
		Where("target_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	return edges, err
}

func (r *followRepository) ListFollowing(ctx context.Context, followerID uuid.UUID, limit, offset int) ([]models.Following, error) {
	var edges []models.Following
	err := r.db.WithContext(ctx).
		Preload("Target").
		Where("follower_id = ?", followerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	return edges, err
}
