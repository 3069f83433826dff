package main

import (
	"fmt"

	"twitt/internal/database"

	"github.com/urfave/cli/v2"
)

func migrateCommand(rt *deps) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply the schema according to DB_SCHEMA_MODE",
				Action: func(c *cli.Context) error {
					_, release, err := rt.open(c.Context, true)
					if err != nil {
						return err
					}
					defer release()
					fmt.Fprintln(rt.out, "schema is up to date")
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "show applied and pending migrations",
				Action: func(c *cli.Context) error {
					db, release, err := rt.open(c.Context, false)
					if err != nil {
						return err
					}
					defer release()

					status, err := database.GetSchemaStatus(c.Context, db, rt.cfg)
					if err != nil {
						return err
					}
					fmt.Fprintf(rt.out, "mode=%s env=%s sql=%t automigrate=%t\n",
						status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate)
					fmt.Fprintf(rt.out, "applied: %v\n", status.AppliedVersions)
					for _, m := range status.PendingMigrations {
						fmt.Fprintf(rt.out, "pending: %s\n", m.String())
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "revert one applied migration",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "version", Required: true, Usage: "migration version to revert"},
				},
				Action: func(c *cli.Context) error {
					db, release, err := rt.open(c.Context, false)
					if err != nil {
						return err
					}
					defer release()

					if err := database.RollbackMigration(c.Context, db, c.Int("version")); err != nil {
						return err
					}
					fmt.Fprintf(rt.out, "rolled back migration %d\n", c.Int("version"))
					return nil
				},
			},
		},
	}
}
