package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"twitt/internal/notifications"
	"twitt/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextNotification(t *testing.T, c *notifications.Client) notifications.Message {
	t.Helper()
	select {
	case raw := <-c.Send:
		var m notifications.Message
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
		return notifications.Message{}
	}
}

func TestNotificationFlow_PostThenLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hub := notifications.NewHub()
	defer func() { _ = hub.Shutdown(ctx) }()
	fanout := notifications.NewFanOut(hub, notifications.NewNotifier(nil), env.follows)

	posts := NewPostService(env.posts, env.users, env.images, fanout)
	likes := NewLikeService(env.likes, env.posts, env.users, fanout)
	follows := env.followService()

	alice := testutil.CreateUser(t, env.db, "alice@x.com")
	bob := testutil.CreateUser(t, env.db, "bob@x.com")
	carol := testutil.CreateUser(t, env.db, "carol@x.com")

	aliceConn, err := hub.Register(alice.ID, nil)
	require.NoError(t, err)
	bobConn, err := hub.Register(bob.ID, nil)
	require.NoError(t, err)
	carolConn, err := hub.Register(carol.ID, nil)
	require.NoError(t, err)

	// p1 before bob follows: nobody is told
	_, err = posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Image: []byte("img"), Caption: "p1"})
	require.NoError(t, err)
	assert.Empty(t, bobConn.Send)

	_, created, err := follows.Follow(ctx, bob.ID, alice.ID.String())
	require.NoError(t, err)
	require.True(t, created)

	p2, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Image: []byte("img"), Caption: "p2"})
	require.NoError(t, err)

	msg := nextNotification(t, bobConn)
	assert.Equal(t, notifications.KindPost, msg.Type)
	assert.Equal(t, "alice@x.com created a new post.", msg.Notification)
	assert.Empty(t, aliceConn.Send)
	assert.Empty(t, carolConn.Send)

	_, err = likes.Like(ctx, bob.ID, p2.ID.String())
	require.NoError(t, err)

	msg = nextNotification(t, aliceConn)
	assert.Equal(t, notifications.KindLike, msg.Type)
	assert.Equal(t, "bob@x.com liked your post.", msg.Notification)
	assert.Empty(t, bobConn.Send)
	assert.Empty(t, carolConn.Send)
}

func TestNotificationFlow_OfflineFollowerDoesNotFailCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hub := notifications.NewHub()
	defer func() { _ = hub.Shutdown(ctx) }()
	fanout := notifications.NewFanOut(hub, notifications.NewNotifier(nil), env.follows)
	posts := NewPostService(env.posts, env.users, env.images, fanout)

	a := testutil.CreateUser(t, env.db, "a@x.com")
	b := testutil.CreateUser(t, env.db, "b@x.com")
	_, _, err := env.followService().Follow(ctx, a.ID, b.ID.String())
	require.NoError(t, err)

	post, err := posts.CreatePost(ctx, CreatePostInput{UserID: b.ID, Image: []byte("img"), Caption: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, post)

	recipients, err := fanout.Recipients(ctx, notifications.PostCreated{PostID: post.ID, Owner: b})
	require.NoError(t, err)
	assert.Equal(t, a.ID, recipients[0])
	assert.Len(t, recipients, 1)
	assert.Equal(t, 0, hub.ConnCount(a.ID))
}
