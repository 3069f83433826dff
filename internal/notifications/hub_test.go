package notifications

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newMiniredis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestHub_PresenceFollowsLocalConnections(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	ctx := context.Background()
	userID := uuid.New()

	assert.False(t, hub.IsOnline(ctx, userID))

	clientA, err := hub.Register(userID, nil)
	require.NoError(t, err)
	clientB, err := hub.Register(userID, nil)
	require.NoError(t, err)

	hub.UnregisterClient(clientA)
	assert.True(t, hub.IsOnline(ctx, userID))

	hub.UnregisterClient(clientB)
	assert.False(t, hub.IsOnline(ctx, userID))

	// a second unregister of the same client is ignored
	hub.UnregisterClient(clientB)
	assert.False(t, hub.IsOnline(ctx, userID))
	assert.Zero(t, hub.ConnCount(userID))
}

func TestHub_PresenceIsSharedThroughRedis(t *testing.T) {
	rdb, _ := newMiniredis(t)
	ctx := context.Background()
	hubA, hubB := NewHub(rdb), NewHub(rdb)
	defer func() { _ = hubA.Shutdown(ctx) }()
	defer func() { _ = hubB.Shutdown(ctx) }()
	userID := uuid.New()

	client, err := hubA.Register(userID, nil)
	require.NoError(t, err)
	assert.True(t, hubB.IsOnline(ctx, userID))

	// leaving is visible to the other process at once, not after a TTL
	hubA.UnregisterClient(client)
	assert.False(t, hubB.IsOnline(ctx, userID))
	assert.False(t, hubA.IsOnline(ctx, userID))
}

func TestHub_RejectsOverPerUserLimit(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	userID := uuid.New()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(userID, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(userID, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)
	assert.Equal(t, maxConnsPerUser, hub.ConnCount(userID))

	_, err = hub.Register(uuid.New(), nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastReachesEveryConnectionOfOneUser(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()
	alice, bob := uuid.New(), uuid.New()

	a1, err := hub.Register(alice, nil)
	require.NoError(t, err)
	a2, err := hub.Register(alice, nil)
	require.NoError(t, err)
	b1, err := hub.Register(bob, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, hub.Broadcast(alice, "hi"))
	assert.Equal(t, "hi", string(<-a1.Send))
	assert.Equal(t, "hi", string(<-a2.Send))
	assert.Empty(t, b1.Send)

	assert.Equal(t, 0, hub.Broadcast(uuid.New(), "nobody"))
}

func TestClient_TrySendDropsWhenQueueFull(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c, err := hub.Register(uuid.New(), nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
	assert.Len(t, c.Send, sendBufferSize)
}

func TestClient_TrySendOnClosedQueueDoesNotPanic(t *testing.T) {
	c := NewClient(NewHub(), nil, uuid.New())
	close(c.Send)
	assert.False(t, c.TrySend([]byte("late")))
}

func TestHub_StalePresenceIsIgnoredAndReaped(t *testing.T) {
	rdb, mr := newMiniredis(t)
	hub := NewHub(rdb)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	ctx := context.Background()

	stale, live := uuid.New(), uuid.New()
	old := strconv.FormatInt(time.Now().Add(-2*presenceTTL).Unix(), 10)
	now := strconv.FormatInt(time.Now().Unix(), 10)
	require.NoError(t, rdb.HSet(ctx, presenceKey(stale), "dead-process", old).Err())
	require.NoError(t, rdb.HSet(ctx, presenceKey(live), "dead-process", old, "other-process", now).Err())
	require.NoError(t, rdb.SAdd(ctx, presenceOnlineSetKey, stale.String(), live.String(), "not-a-uuid").Err())

	assert.False(t, hub.IsOnline(ctx, stale))
	assert.True(t, hub.IsOnline(ctx, live))

	hub.presence.reapOnce(ctx)

	members, err := rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{live.String()}, members)
	assert.False(t, mr.Exists(presenceKey(stale)))
	fields, err := rdb.HKeys(ctx, presenceKey(live)).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"other-process"}, fields)
}

func TestHub_RegisterRecordsPresenceInRedis(t *testing.T) {
	rdb, mr := newMiniredis(t)
	hub := NewHub(rdb)
	ctx := context.Background()
	userID := uuid.New()

	_, err := hub.Register(userID, nil)
	require.NoError(t, err)

	ok, err := rdb.SIsMember(ctx, presenceOnlineSetKey, userID.String()).Result()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(presenceKey(userID)))
	assert.Equal(t, presenceTTL, mr.TTL(presenceKey(userID)))

	// shutdown withdraws this process's presence
	require.NoError(t, hub.Shutdown(ctx))
	assert.False(t, mr.Exists(presenceKey(userID)))
	ok, err = rdb.SIsMember(ctx, presenceOnlineSetKey, userID.String()).Result()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHub_ShutdownIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(uuid.New(), nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	select {
	case <-hub.Done():
	default:
		t.Fatal("Done not closed after Shutdown")
	}
}
