// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"twitt/internal/database"
	"twitt/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory database with the full schema applied.
// All connections share one cache so every query sees the same tables.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts an active user with a username derived from email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username: strings.SplitN(email, "@", 2)[0],
		Email:    email,
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post owned by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID uuid.UUID, caption string) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:   userID,
		Caption:  caption,
		Image:    "posts/test.jpg",
		ImageURL: "/media/posts/test.jpg",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// LikeRows counts the live Like rows of a post, the true like count.
func LikeRows(t *testing.T, db *gorm.DB, postID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error)
	return n
}

// FollowRows counts edges where followerID follows targetID.
func FollowRows(t *testing.T, db *gorm.DB, followerID, targetID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Following{}).
		Where("follower_id = ? AND target_id = ?", followerID, targetID).
		Count(&n).Error)
	return n
}
