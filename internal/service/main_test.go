package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"twitt/internal/media"
	"twitt/internal/models"
	"twitt/internal/notifications"
	"twitt/internal/repository"
	"twitt/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeImages is an in-memory ImageStore.
type fakeImages struct {
	mu       sync.Mutex
	n        int
	uploaded []string
	removed  []string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, ownerID uuid.UUID, _ []byte) (*media.Stored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	key := fmt.Sprintf("posts/%s/%d.jpg", ownerID, f.n)
	f.uploaded = append(f.uploaded, key)
	return &media.Stored{Key: key, URL: "/media/" + key}, nil
}

func (f *fakeImages) Remove(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) OnEvent(_ context.Context, ev notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) all() []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.Event(nil), p.events...)
}

// countingPostRepo records GetByID calls so tests can prove validation ran first.
type countingPostRepo struct {
	repository.PostRepository
	lookups int
}

func (r *countingPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.lookups++
	return r.PostRepository.GetByID(ctx, id)
}

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    *countingPostRepo
	likes    repository.LikeRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	images   *fakeImages
	events   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db, nil),
		posts:    &countingPostRepo{PostRepository: repository.NewPostRepository(db)},
		likes:    repository.NewLikeRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
		images:   &fakeImages{},
		events:   &recordingPublisher{},
	}
}

func (e *testEnv) postService() *PostService {
	return NewPostService(e.posts, e.users, e.images, e.events)
}

func (e *testEnv) likeService() *LikeService {
	return NewLikeService(e.likes, e.posts, e.users, e.events)
}

func (e *testEnv) commentService() *CommentService {
	return NewCommentService(e.comments, e.posts, e.users)
}

func (e *testEnv) followService() *FollowService {
	return NewFollowService(e.follows, e.users, nil)
}

func (e *testEnv) makeAdmin(t *testing.T, u *models.User) {
	t.Helper()
	require.NoError(t, e.users.SetAdmin(context.Background(), u.ID, true))
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeValidation)
}
