// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"twitt/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user. It satisfies the signup
// password policy so seeded accounts can log in through the API.
const DemoPassword = "Twitt#Demo2024"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	rnd    *rand.Rand
	faker  *gofakeit.Faker
	hashed string
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:    db,
		opts:  opts,
		rnd:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed != "" {
		return f.hashed, nil
	}
	if f.opts.SkipBcrypt {
		f.hashed = DemoPassword
		return f.hashed, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	f.hashed = string(hashed)
	return f.hashed, nil
}

// pastTime returns a random instant within the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser constructs and persists an active user. Optional overrides may
// modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.passwordHash()
	if err != nil {
		return nil, err
	}

	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.seq))
	username = strings.NewReplacer(" ", "", "'", "").Replace(username)

	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		Password:  hashed,
		IsActive:  true,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user without persisting it. Seeded posts
// point at placeholder images instead of uploaded files.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	key := uuid.NewString()
	post := &models.Post{
		UserID:   user.ID,
		Image:    "seed/" + key + ".jpg",
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", key),
		Caption:  f.faker.Sentence(f.rnd.Intn(10) + 3),
	}
	post.CreatedAt = f.pastTime()
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a post for user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateLike persists a like and bumps the post counter in one transaction.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("no_of_likes", gorm.Expr("no_of_likes + ?", 1)).Error; err != nil {
			return err
		}
		post.NoOfLikes++
		return nil
	})
}

// CreateComment persists a comment on post. A non-nil parent makes it a reply.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:  user.ID,
		PostID:  post.ID,
		Comment: truncate(f.faker.Sentence(f.rnd.Intn(12)+2), 255),
	}
	if parent != nil {
		comment.ReplyToID = &parent.ID
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists an edge where follower follows target.
func (f *Factory) CreateFollow(ctx context.Context, follower, target *models.User) error {
	return f.db.WithContext(ctx).Create(&models.Following{FollowerID: follower.ID, TargetID: target.ID}).Error
}

// pick returns up to n distinct indexes in [0, size) other than skip.
func (f *Factory) pick(size, n, skip int) []int {
	out := make([]int, 0, n)
	for _, i := range f.rnd.Perm(size) {
		if len(out) == n {
			break
		}
		if i == skip {
			continue
		}
		out = append(out, i)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
