package service

import (
	"context"
	"errors"

	"twitt/internal/authz"
	"twitt/internal/media"
	"twitt/internal/models"
	"twitt/internal/notifications"
	"twitt/internal/observability"
	"twitt/internal/repository"
	"twitt/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageStore uploads and removes post images.
type ImageStore interface {
	Upload(ctx context.Context, ownerID uuid.UUID, data []byte) (*media.Stored, error)
	Remove(ctx context.Context, key string)
}

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	images    ImageStore
	publisher notifications.Publisher
}

type CreatePostInput struct {
	UserID  uuid.UUID
	Image   []byte
	Caption string
}

// UpdatePostInput carries a partial update. Nil Caption and empty Image keep
// the stored values.
type UpdatePostInput struct {
	UserID  uuid.UUID
	PostID  string
	Caption *string
	Image   []byte
}

type ListPostsInput struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	images ImageStore,
	publisher notifications.Publisher,
) *PostService {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		images:    images,
		publisher: publisher,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Image) == 0 {
		return nil, models.ErrImageRequired
	}
	caption, err := validation.Caption(in.Caption)
	if err != nil {
		return nil, err
	}
	owner, err := loadActor(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := s.images.Upload(ctx, owner.ID, in.Image)
	if err != nil {
		if _, ok := models.AsAppError(err); ok {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}

	post := &models.Post{
		UserID:   owner.ID,
		Image:    stored.Key,
		ImageURL: stored.URL,
		Caption:  caption,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.images.Remove(ctx, stored.Key)
		return nil, models.NewInternalError(err)
	}
	post.User = owner

	s.publisher.OnEvent(ctx, notifications.PostCreated{PostID: post.ID, Owner: owner})
	return post, nil
}

// accessiblePost validates the id, loads the post and applies the ownership gate.
func (s *PostService) accessiblePost(ctx context.Context, actorID uuid.UUID, rawID string) (*models.Post, error) {
	postID, err := validation.ParsePostID(rawID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, models.ErrPostNotFound)
	}
	actor, err := loadActor(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessPost(actor, post) {
		return nil, models.NewForbiddenError()
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, actorID uuid.UUID, rawID string) (*models.Post, error) {
	return s.accessiblePost(ctx, actorID, rawID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UpdatePost", attribute.String("post.id", in.PostID))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.accessiblePost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	var fields []string
	if in.Caption != nil {
		caption, err := validation.Caption(*in.Caption)
		if err != nil {
			return nil, err
		}
		post.Caption = caption
		fields = append(fields, "caption")
	}

	var replaced, uploaded string
	if len(in.Image) > 0 {
		stored, err := s.images.Upload(ctx, post.UserID, in.Image)
		if err != nil {
			if _, ok := models.AsAppError(err); ok {
				return nil, err
			}
			return nil, models.NewInternalError(err)
		}
		replaced, uploaded = post.Image, stored.Key
		post.Image, post.ImageURL = stored.Key, stored.URL
		fields = append(fields, "image", "image_url")
	}

	if err := s.postRepo.Update(ctx, post, fields...); err != nil {
		if uploaded != "" {
			s.images.Remove(ctx, uploaded)
		}
		return nil, models.NewInternalError(err)
	}
	if replaced != "" {
		s.images.Remove(ctx, replaced)
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, actorID uuid.UUID, rawID string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost", attribute.String("post.id", rawID))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.accessiblePost(ctx, actorID, rawID)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrPostNotFound
		}
		return models.NewInternalError(err)
	}

	s.images.Remove(ctx, post.Image)
	observability.FromContext(ctx).Info("post deleted",
		zap.String("post_id", post.ID.String()),
		zap.String("owner_id", post.UserID.String()))
	return nil
}

// ListPosts returns the actor's own posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.Post, error) {
	limit, offset := normalizePage(in.Limit, in.Offset)
	posts, err := s.postRepo.ListByUser(ctx, in.UserID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
