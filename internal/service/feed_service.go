package service

import (
	"context"

	"twitt/internal/cache"
	"twitt/internal/featureflags"
	"twitt/internal/models"
	"twitt/internal/observability"
	"twitt/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxSuggestions bounds the follow suggestions attached to a feed page.
const MaxSuggestions = 4

type FeedService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	cache    *cache.Store
	flags    *featureflags.Manager
}

type FeedInput struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}

func NewFeedService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	store *cache.Store,
	flags *featureflags.Manager,
) *FeedService {
	if store == nil {
		store = cache.NewStore(nil)
	}
	return &FeedService{postRepo: postRepo, userRepo: userRepo, cache: store, flags: flags}
}

// Feed returns posts by followed users, newest first, plus follow suggestions.
func (s *FeedService) Feed(ctx context.Context, in FeedInput) (_ *models.Feed, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Feed")
	defer func() { observability.EndSpan(span, err) }()

	limit, offset := normalizePage(in.Limit, in.Offset)
	posts, err := s.postRepo.ListFeed(ctx, in.UserID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if posts == nil {
		posts = []models.Post{}
	}
	feed := &models.Feed{Posts: posts, Suggestions: []models.UserSummary{}}
	if s.flags.Enabled(featureflags.Suggestions, in.UserID) {
		suggestions, err := s.suggestions(ctx, in.UserID)
		if err != nil {
			// Suggestions are decoration; the feed still renders without them.
			observability.FromContext(ctx).Warn("feed suggestions unavailable", zap.Error(err))
		} else {
			feed.Suggestions = suggestions
		}
	}
	return feed, nil
}

func (s *FeedService) suggestions(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	var out []models.UserSummary
	err := s.cache.Aside(ctx, cache.SuggestionsKey(userID), &out, cache.SuggestionsTTL, func() error {
		users, err := s.userRepo.Suggestions(ctx, userID, MaxSuggestions)
		if err != nil {
			return err
		}
		out = make([]models.UserSummary, 0, len(users))
		for i := range users {
			out = append(out, users[i].Summary())
		}
		return nil
	})
	return out, err
}
