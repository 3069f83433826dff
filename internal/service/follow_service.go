package service

import (
	"context"

	"twitt/internal/cache"
	"twitt/internal/models"
	"twitt/internal/observability"
	"twitt/internal/repository"
	"twitt/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// FollowService manages follow edges. An actor follows a target user.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	cache      *cache.Store
}

// UnfollowInput identifies the edge either by its own id or by the followed user.
type UnfollowInput struct {
	UserID      uuid.UUID
	FollowingID string
	FollowerID  string
}

type ListFollowsInput struct {
	UserID string
	Limit  int
	Offset int
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, store *cache.Store) *FollowService {
	if store == nil {
		store = cache.NewStore(nil)
	}
	return &FollowService{followRepo: followRepo, userRepo: userRepo, cache: store}
}

// Follow returns the edge and whether it was created by this call.
func (s *FollowService) Follow(ctx context.Context, actorID uuid.UUID, rawTargetID string) (_ *models.Following, _ bool, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FollowService", "Follow", attribute.String("target.id", rawTargetID))
	defer func() { observability.EndSpan(span, err) }()

	targetID, err := validation.ParseID(rawTargetID, models.ErrFollowerIDMissing, models.ErrFollowerIDInvalid)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, false, storeError(err, models.ErrUserNotFound)
	}
	if targetID == actorID {
		return nil, false, models.ErrFollowSelf
	}

	edge, created, err := s.followRepo.Create(ctx, actorID, targetID)
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	if created {
		s.cache.Invalidate(ctx, cache.SuggestionsKey(actorID))
	}
	return edge, created, nil
}

// Unfollow deletes an edge the actor follows through. It reports whether a row was removed.
func (s *FollowService) Unfollow(ctx context.Context, in UnfollowInput) (bool, error) {
	var (
		deleted bool
		err     error
	)
	switch {
	case in.FollowingID != "":
		edgeID, perr := validation.ParseID(in.FollowingID, models.ErrFollowerIDMissing, models.ErrFollowingIDInvalid)
		if perr != nil {
			return false, perr
		}
		deleted, err = s.followRepo.DeleteByID(ctx, edgeID, in.UserID)
	default:
		targetID, perr := validation.ParseID(in.FollowerID, models.ErrFollowerIDMissing, models.ErrFollowerIDInvalid)
		if perr != nil {
			return false, perr
		}
		deleted, err = s.followRepo.DeleteByTarget(ctx, in.UserID, targetID)
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if deleted {
		s.cache.Invalidate(ctx, cache.SuggestionsKey(in.UserID))
	}
	return deleted, nil
}

func (s *FollowService) parseUser(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := validation.ParseID(raw, models.ErrUserIDInvalid, models.ErrUserIDInvalid)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return uuid.Nil, storeError(err, models.ErrUserNotFound)
	}
	return id, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, in ListFollowsInput) ([]models.Following, error) {
	id, err := s.parseUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	limit, offset := normalizePage(in.Limit, in.Offset)
	edges, err := s.followRepo.ListFollowers(ctx, id, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (s *FollowService) ListFollowing(ctx context.Context, in ListFollowsInput) ([]models.Following, error) {
	id, err := s.parseUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	limit, offset := normalizePage(in.Limit, in.Offset)
	edges, err := s.followRepo.ListFollowing(ctx, id, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}
