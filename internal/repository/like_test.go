package repository

import (
	"context"
	"sync"
	"testing"

	"twitt/internal/models"
	"twitt/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func likeCount(t *testing.T, repo PostRepository, post *models.Post) int64 {
	t.Helper()
	got, err := repo.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	return got.NoOfLikes
}

func TestLikeRepository_CreateIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	likes := NewLikeRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	post := testutil.CreatePost(t, db, alice.ID, "p")

	created, err := likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, int64(1), testutil.LikeRows(t, db, post.ID))
	assert.Equal(t, int64(1), likeCount(t, posts, post))
}

func TestLikeRepository_ConcurrentLikesInsertOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	likes := NewLikeRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	post := testutil.CreatePost(t, db, alice.ID, "p")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := likes.Create(ctx, bob.ID, post.ID)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, int64(1), likeCount(t, posts, post))
}

func TestLikeRepository_DeleteKeepsCounter(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	likes := NewLikeRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	post := testutil.CreatePost(t, db, alice.ID, "p")

	_, err := likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	deleted, err := likes.Delete(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = likes.Delete(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Zero(t, testutil.LikeRows(t, db, post.ID))
	assert.Equal(t, int64(1), likeCount(t, posts, post))

	// Liking again inserts a fresh row and bumps the counter past the true count.
	created, err := likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(2), likeCount(t, posts, post))

	assert.Equal(t, int64(1), testutil.LikeRows(t, db, post.ID))
}
