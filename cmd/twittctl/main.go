// Command twittctl is the operator CLI: schema migrations, demo data and
// admin management.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"twitt/internal/cache"
	"twitt/internal/config"
	"twitt/internal/database"
	"twitt/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps carries what the commands need. Tests swap open for an in-memory
// database and redis for miniredis.
type deps struct {
	cfg   *config.Config
	open  func(ctx context.Context, applySchema bool) (db *gorm.DB, release func(), err error)
	redis func() *redis.Client
	out   io.Writer
}

// redisClient returns nil when no Redis is configured or reachable.
func (rt *deps) redisClient() *redis.Client {
	if rt.redis == nil {
		return nil
	}
	return rt.redis()
}

func newApp(rt *deps) *cli.App {
	return &cli.App{
		Name:  "twittctl",
		Usage: "operate a Twitt deployment",
		Commands: []*cli.Command{
			migrateCommand(rt),
			seedCommand(rt),
			adminCommand(rt),
		},
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.Init(cfg.Env, cfg.LogLevel)
	defer observability.Sync()

	rt := &deps{
		cfg: cfg,
		open: func(_ context.Context, applySchema bool) (*gorm.DB, func(), error) {
			db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: applySchema})
			if err != nil {
				return nil, nil, err
			}
			return db, func() { _ = database.Close(db) }, nil
		},
		redis: func() *redis.Client { return cache.InitRedis(cfg.RedisURL) },
		out:   os.Stdout,
	}

	if err := newApp(rt).Run(os.Args); err != nil {
		observability.Logger.Error("command failed", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
}
