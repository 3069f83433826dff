package repository

import (
	"context"
	"sync"
	"testing"

	"twitt/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")

	first, created, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.EqualValues(t, 1, testutil.FollowRows(t, db, alice.ID, bob.ID))
	assert.Zero(t, testutil.FollowRows(t, db, bob.ID, alice.ID))
}

func TestFollowRepository_DeleteOnlyByFollower(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")

	edge, _, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	deleted, err := repo.DeleteByID(ctx, edge.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteByID(ctx, edge.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	deleted, err = repo.DeleteByTarget(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestFollowRepository_FollowerIDsPages(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	target := testutil.CreateUser(t, db, "target@example.com")
	want := map[uuid.UUID]bool{}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"} {
		u := testutil.CreateUser(t, db, email)
		_, _, err := repo.Create(ctx, u.ID, target.ID)
		require.NoError(t, err)
		want[u.ID] = true
	}

	got := map[uuid.UUID]bool{}
	after := uuid.Nil
	pages := 0
	for {
		ids, err := repo.FollowerIDs(ctx, target.ID, after, 2)
		require.NoError(t, err)
		if len(ids) == 0 {
			break
		}
		pages++
		for _, id := range ids {
			got[id] = true
		}
		after = ids[len(ids)-1]
	}

	assert.Equal(t, want, got)
	assert.Equal(t, 3, pages)

	followers, err := repo.ListFollowers(ctx, target.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, followers, 5)
	require.NotNil(t, followers[0].Follower)
}

func TestFollowRepository_ConcurrentFollowsInsertOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		edgeIDs = map[uuid.UUID]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			edge, created, err := repo.Create(ctx, alice.ID, bob.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if created {
				winners++
			}
			edgeIDs[edge.ID] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Len(t, edgeIDs, 1)

	assert.EqualValues(t, 1, testutil.FollowRows(t, db, alice.ID, bob.ID))
}
