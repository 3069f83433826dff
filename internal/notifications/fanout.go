package notifications

import (
	"context"
	"encoding/json"

	"twitt/internal/observability"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	followerPageSize   = 500
	maxDeliveryWorkers = 16
)

// FollowerSource pages through the follower ids of a user.
type FollowerSource interface {
	FollowerIDs(ctx context.Context, targetID, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Message is the JSON frame written to a notification socket.
type Message struct {
	Type         string         `json:"type"`
	Notification string         `json:"notification,omitempty"`
	Payload      map[string]any `json:"payload"`
}

// FanOut turns committed events into socket messages for their recipients.
type FanOut struct {
	hub       *Hub
	notifier  *Notifier
	followers FollowerSource
}

// NewFanOut builds a FanOut. Recipients the hub's presence reports offline are
// dropped. With an enabled notifier, messages travel through Redis and reach
// local sockets through the hub's subscription; otherwise they go straight to
// the hub.
func NewFanOut(hub *Hub, notifier *Notifier, followers FollowerSource) *FanOut {
	return &FanOut{hub: hub, notifier: notifier, followers: followers}
}

// OnEvent delivers ev. Failures are logged and counted, never returned.
func (f *FanOut) OnEvent(ctx context.Context, ev Event) {
	log := observability.FromContext(ctx)

	msg, ok := buildMessage(ev)
	if !ok {
		log.Warn("unsupported notification event", zap.String("kind", ev.Kind()))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		observability.NotificationsDropped.WithLabelValues("encode").Inc()
		log.Error("encode notification failed", zap.Error(err))
		return
	}
	payload := string(data)

	p := pool.New().WithMaxGoroutines(maxDeliveryWorkers)
	err = f.eachRecipient(ctx, ev, func(userID uuid.UUID) {
		p.Go(func() { f.deliver(ctx, ev.Kind(), userID, payload) })
	})
	p.Wait()
	if err != nil {
		observability.NotificationsDropped.WithLabelValues("recipients").Inc()
		log.Error("resolve notification recipients failed", zap.String("kind", ev.Kind()), zap.Error(err))
	}
}

// Recipients returns every user ev is addressed to.
func (f *FanOut) Recipients(ctx context.Context, ev Event) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := f.eachRecipient(ctx, ev, func(id uuid.UUID) { out = append(out, id) })
	return out, err
}

func (f *FanOut) eachRecipient(ctx context.Context, ev Event, fn func(uuid.UUID)) error {
	switch e := ev.(type) {
	case LikeCreated:
		fn(e.PostOwner)
		return nil
	case PostCreated:
		if e.Owner == nil || f.followers == nil {
			return nil
		}
		after := uuid.Nil
		for {
			ids, err := f.followers.FollowerIDs(ctx, e.Owner.ID, after, followerPageSize)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fn(id)
			}
			if len(ids) < followerPageSize {
				return nil
			}
			after = ids[len(ids)-1]
		}
	}
	return nil
}

func (f *FanOut) deliver(ctx context.Context, kind string, userID uuid.UUID, payload string) {
	if f.hub != nil && !f.hub.IsOnline(ctx, userID) {
		observability.NotificationsDropped.WithLabelValues("offline").Inc()
		return
	}

	if f.notifier.Enabled() {
		err := f.notifier.PublishUser(ctx, userID, payload)
		if err == nil {
			observability.NotificationsSent.WithLabelValues(kind).Inc()
			return
		}
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		observability.FromContext(ctx).Warn("publish notification failed, delivering locally",
			zap.String("recipient", userID.String()), zap.Error(err))
	}

	if f.hub != nil && f.hub.Broadcast(userID, payload) > 0 {
		observability.NotificationsSent.WithLabelValues(kind).Inc()
		return
	}
	observability.NotificationsDropped.WithLabelValues("offline").Inc()
}

func buildMessage(ev Event) (Message, bool) {
	switch e := ev.(type) {
	case LikeCreated:
		if e.Liker == nil {
			return Message{}, false
		}
		return Message{
			Type:         KindLike,
			Notification: e.Liker.DisplayName() + " liked your post.",
			Payload: map[string]any{
				"post_id":  e.PostID,
				"user_id":  e.Liker.ID,
				"username": e.Liker.Username,
			},
		}, true
	case PostCreated:
		if e.Owner == nil {
			return Message{}, false
		}
		return Message{
			Type:         KindPost,
			Notification: e.Owner.DisplayName() + " created a new post.",
			Payload: map[string]any{
				"post_id":  e.PostID,
				"user_id":  e.Owner.ID,
				"username": e.Owner.Username,
			},
		}, true
	}
	return Message{}, false
}
