package notifications

import (
	"context"

	"twitt/internal/models"

	"github.com/google/uuid"
)

// Event kinds carried in the socket payload "type" field.
const (
	KindLike = "like"
	KindPost = "post"
)

// Event is a committed write that may notify other users.
type Event interface {
	Kind() string
}

// LikeCreated is emitted after a new Like row is committed.
type LikeCreated struct {
	PostID    uuid.UUID
	PostOwner uuid.UUID
	Liker     *models.User
}

func (LikeCreated) Kind() string { return KindLike }

// PostCreated is emitted after a new Post is committed.
type PostCreated struct {
	PostID uuid.UUID
	Owner  *models.User
}

func (PostCreated) Kind() string { return KindPost }

// Publisher accepts events after the originating write has committed.
// Implementations must not fail the caller.
type Publisher interface {
	OnEvent(ctx context.Context, ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event)

func (f PublisherFunc) OnEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// NopPublisher drops every event.
var NopPublisher Publisher = PublisherFunc(func(context.Context, Event) {})
