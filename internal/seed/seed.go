package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"

	"twitt/internal/models"
	"twitt/internal/observability"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed presets.yml
var builtinPresets []byte

// Options configure the seeder. Per-entity counts are upper bounds: a user
// never follows itself and likes are unique per user and post.
type Options struct {
	Users           int     `yaml:"users"`
	PostsPerUser    int     `yaml:"posts_per_user"`
	FollowsPerUser  int     `yaml:"follows_per_user"`
	LikesPerPost    int     `yaml:"likes_per_post"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	ReplyRatio      float64 `yaml:"reply_ratio"`
	MaxDays         int     `yaml:"max_days"`

	SkipBcrypt bool  `yaml:"-"`
	RandomSeed int64 `yaml:"-"`
}

// Summary counts the rows a run created.
type Summary struct {
	Users    int
	Posts    int
	Follows  int
	Likes    int
	Comments int
}

// LoadPresets decodes a YAML document mapping preset names to Options.
func LoadPresets(r io.Reader) (map[string]Options, error) {
	presets := map[string]Options{}
	if err := yaml.NewDecoder(r).Decode(&presets); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return presets, nil
}

// BuiltinPresets returns the presets shipped with the binary.
func BuiltinPresets() map[string]Options {
	presets := map[string]Options{}
	if err := yaml.Unmarshal(builtinPresets, &presets); err != nil {
		panic(fmt.Sprintf("seed: invalid embedded presets: %v", err))
	}
	return presets
}

// PresetNames lists preset names in sorted order.
func PresetNames(presets map[string]Options) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seeder populates the database with a connected social graph.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Run creates users, then follows, posts, likes and comments between them.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := observability.FromContext(ctx)
	log.Info("seeding database",
		zap.Int("users", s.opts.Users),
		zap.Int("posts_per_user", s.opts.PostsPerUser))

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	for i, follower := range users {
		for _, j := range s.factory.pick(len(users), s.opts.FollowsPerUser, i) {
			if err := s.factory.CreateFollow(ctx, follower, users[j]); err != nil {
				return sum, fmt.Errorf("create follow: %w", err)
			}
			sum.Follows++
		}
	}

	for _, author := range users {
		for p := 0; p < s.opts.PostsPerUser; p++ {
			post, err := s.factory.CreatePost(ctx, author)
			if err != nil {
				return sum, fmt.Errorf("create post: %w", err)
			}
			sum.Posts++

			likes, comments, err := s.engage(ctx, users, post)
			sum.Likes += likes
			sum.Comments += comments
			if err != nil {
				return sum, err
			}
		}
	}

	log.Info("seeding completed",
		zap.Int("users", sum.Users),
		zap.Int("posts", sum.Posts),
		zap.Int("follows", sum.Follows),
		zap.Int("likes", sum.Likes),
		zap.Int("comments", sum.Comments))
	return sum, nil
}

func (s *Seeder) engage(ctx context.Context, users []*models.User, post *models.Post) (likes, comments int, err error) {
	for _, i := range s.factory.pick(len(users), s.opts.LikesPerPost, -1) {
		if err := s.factory.CreateLike(ctx, users[i], post); err != nil {
			return likes, comments, fmt.Errorf("create like: %w", err)
		}
		likes++
	}

	var thread []*models.Comment
	for c := 0; c < s.opts.CommentsPerPost; c++ {
		author := users[s.factory.rnd.Intn(len(users))]
		var parent *models.Comment
		if len(thread) > 0 && s.factory.rnd.Float64() < s.opts.ReplyRatio {
			parent = thread[s.factory.rnd.Intn(len(thread))]
		}
		comment, err := s.factory.CreateComment(ctx, author, post, parent)
		if err != nil {
			return likes, comments, fmt.Errorf("create comment: %w", err)
		}
		thread = append(thread, comment)
		comments++
	}
	return likes, comments, nil
}

// ClearAll hard-deletes every row from the content and identity tables.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{&models.Comment{}, &models.Like{}, &models.Following{}, &models.Post{}, &models.User{}}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
