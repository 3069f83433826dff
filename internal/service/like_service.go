package service

import (
	"context"

	"twitt/internal/models"
	"twitt/internal/notifications"
	"twitt/internal/observability"
	"twitt/internal/repository"
	"twitt/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// LikeResult tells the caller whether the operation changed state.
type LikeResult struct {
	Changed bool
	Post    *models.Post
}

// LikeService likes and dislikes posts. The post counter is only ever
// incremented; dislikes leave it unchanged.
type LikeService struct {
	likeRepo  repository.LikeRepository
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	publisher notifications.Publisher
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	publisher notifications.Publisher,
) *LikeService {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	return &LikeService{likeRepo: likeRepo, postRepo: postRepo, userRepo: userRepo, publisher: publisher}
}

func (s *LikeService) Like(ctx context.Context, actorID uuid.UUID, rawPostID string) (_ *LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "LikeService", "Like", attribute.String("post.id", rawPostID))
	defer func() { observability.EndSpan(span, err) }()

	postID, err := validation.ParsePostID(rawPostID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, models.ErrPostNotFound)
	}
	liker, err := loadActor(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	created, err := s.likeRepo.Create(ctx, liker.ID, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !created {
		observability.LikesTotal.WithLabelValues("duplicate").Inc()
		return &LikeResult{Changed: false, Post: post}, nil
	}
	observability.LikesTotal.WithLabelValues("created").Inc()
	post.NoOfLikes++

	s.publisher.OnEvent(ctx, notifications.LikeCreated{
		PostID:    post.ID,
		PostOwner: post.UserID,
		Liker:     liker,
	})
	return &LikeResult{Changed: true, Post: post}, nil
}

func (s *LikeService) Dislike(ctx context.Context, actorID uuid.UUID, rawPostID string) (_ *LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "LikeService", "Dislike", attribute.String("post.id", rawPostID))
	defer func() { observability.EndSpan(span, err) }()

	postID, err := validation.ParsePostID(rawPostID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, models.ErrPostNotFound)
	}

	deleted, err := s.likeRepo.Delete(ctx, actorID, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !deleted {
		observability.LikesTotal.WithLabelValues("missing").Inc()
		return &LikeResult{Changed: false, Post: post}, nil
	}
	observability.LikesTotal.WithLabelValues("removed").Inc()
	return &LikeResult{Changed: true, Post: post}, nil
}
