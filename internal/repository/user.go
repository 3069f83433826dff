// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"

	"twitt/internal/cache"
	"twitt/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetFresh(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	Suggestions(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserRepository returns a new UserRepository implementation.
// store may be nil, in which case reads always go to the database.
func NewUserRepository(db *gorm.DB, store *cache.Store) UserRepository {
	if store == nil {
		store = cache.NewStore(nil)
	}
	return &userRepository{db: db, cache: store}
}

// GetByID is cached. The cached copy never carries the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetFresh bypasses the cache. Permission checks read the actor through it so
// an admin change is seen on the next request.
func (r *userRepository) GetFresh(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.cache.Invalidate(ctx, cache.UserKey(id))
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("email ASC").Find(&users).Error
	return users, err
}

// Suggestions returns up to limit random active users that userID does not
// follow yet, excluding userID itself.
func (r *userRepository) Suggestions(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, error) {
	followed := r.db.Model(&models.Following{}).Select("target_id").Where("follower_id = ?", userID)

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id <> ? AND is_active = ?", userID, true).
		Where("id NOT IN (?)", followed).
		Order("RANDOM()").
		Limit(limit).
		Find(&users).Error
	return users, err
}
