package main

import (
	"fmt"
	"os"
	"strings"

	"twitt/internal/seed"

	"github.com/urfave/cli/v2"
)

func seedCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "populate the database with demo data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "preset", Value: "small", Usage: "preset name"},
			&cli.StringFlag{Name: "presets-file", Usage: "YAML file with extra presets"},
			&cli.IntFlag{Name: "users", Usage: "override the preset user count"},
			&cli.BoolFlag{Name: "clean", Usage: "delete existing users and content first"},
			&cli.BoolFlag{Name: "skip-bcrypt", Usage: "store the demo password unhashed (local only)"},
			&cli.Int64Flag{Name: "random-seed", Usage: "deterministic generator seed"},
		},
		Action: func(c *cli.Context) error {
			presets := seed.BuiltinPresets()
			if path := c.String("presets-file"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				extra, err := seed.LoadPresets(f)
				_ = f.Close()
				if err != nil {
					return err
				}
				for name, opts := range extra {
					presets[name] = opts
				}
			}

			opts, ok := presets[c.String("preset")]
			if !ok {
				return fmt.Errorf("unknown preset %q (available: %s)",
					c.String("preset"), strings.Join(seed.PresetNames(presets), ", "))
			}
			if n := c.Int("users"); n > 0 {
				opts.Users = n
			}
			opts.SkipBcrypt = c.Bool("skip-bcrypt")
			opts.RandomSeed = c.Int64("random-seed")

			db, release, err := rt.open(c.Context, true)
			if err != nil {
				return err
			}
			defer release()

			seeder := seed.NewSeeder(db, opts)
			if c.Bool("clean") {
				if err := seeder.ClearAll(c.Context); err != nil {
					return fmt.Errorf("clean: %w", err)
				}
			}
			sum, err := seeder.Run(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "seeded %d users, %d posts, %d follows, %d likes, %d comments\n",
				sum.Users, sum.Posts, sum.Follows, sum.Likes, sum.Comments)
			fmt.Fprintf(rt.out, "all seeded users share the password %s\n", seed.DemoPassword)
			return nil
		},
	}
}
