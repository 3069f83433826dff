package main

import (
	"context"
	"fmt"
	"strings"

	"twitt/internal/cache"
	"twitt/internal/models"
	"twitt/internal/repository"
	"twitt/internal/service"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func adminCommand(rt *deps) *cli.Command {
	setAdmin := func(isAdmin bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one user id or email")
			}
			return rt.withUsers(c.Context, func(users *service.UserService) error {
				target, err := resolveUser(c.Context, users, c.Args().First())
				if err != nil {
					return err
				}
				if target.IsAdmin == isAdmin {
					fmt.Fprintf(rt.out, "%s is already %s\n", target.Email, adminLabel(isAdmin))
					return nil
				}
				updated, err := users.SetAdmin(c.Context, target.ID, isAdmin)
				if err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "%s is now %s\n", updated.Email, adminLabel(isAdmin))
				return nil
			})
		}
	}

	return &cli.Command{
		Name:  "admin",
		Usage: "manage admin accounts",
		Subcommands: []*cli.Command{
			{Name: "promote", Usage: "grant admin", ArgsUsage: "<user id|email>", Action: setAdmin(true)},
			{Name: "demote", Usage: "revoke admin", ArgsUsage: "<user id|email>", Action: setAdmin(false)},
			{
				Name:  "list",
				Usage: "list admin accounts",
				Action: func(c *cli.Context) error {
					return rt.withUsers(c.Context, func(users *service.UserService) error {
						admins, err := users.ListAdmins(c.Context)
						if err != nil {
							return err
						}
						if len(admins) == 0 {
							fmt.Fprintln(rt.out, "no admins")
							return nil
						}
						for _, u := range admins {
							fmt.Fprintf(rt.out, "%s\t%s\t%s\n", u.ID, u.Username, u.Email)
						}
						return nil
					})
				},
			},
		},
	}
}

func (rt *deps) withUsers(ctx context.Context, fn func(*service.UserService) error) error {
	db, release, err := rt.open(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	// Admin changes must evict the server's cached copy of the user.
	rdb := rt.redisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	return fn(service.NewUserService(repository.NewUserRepository(db, cache.NewStore(rdb))))
}

func resolveUser(ctx context.Context, users *service.UserService, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return users.GetUserByID(ctx, id)
	}
	return users.GetUserByEmail(ctx, ref)
}

func adminLabel(isAdmin bool) string {
	if isAdmin {
		return "an admin"
	}
	return "not an admin"
}
