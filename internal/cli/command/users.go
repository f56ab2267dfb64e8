package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/cli/output"
	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/server/config"
	"github.com/yndnr/filegate/internal/storage"
)

// UsersCommand returns the users subcommand group.
func UsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect the user registry",
		Subcommands: []*cli.Command{
			{
				Name:   "count",
				Usage:  "Print the number of registered users",
				Action: usersCount,
			},
			{
				Name:   "list",
				Usage:  "List registered user ids",
				Action: usersList,
			},
		},
	}
}

// UserCount is the output of users count.
type UserCount struct {
	Users int64 `json:"users" yaml:"users"`
}

func usersCount(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, s storage.Store) error {
		n, err := service.NewUserService(s).Count(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if ParseGlobalFlags(c).Output == output.FormatTable {
			_, err := fmt.Fprintln(c.App.Writer, n)
			return err
		}
		return printResult(c, UserCount{Users: n})
	})
}

// UserRow is one line of users list.
type UserRow struct {
	ID int64 `json:"id" yaml:"id"`
}

func usersList(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, s storage.Store) error {
		ids, err := service.NewUserService(s).List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		rows := make([]UserRow, len(ids))
		for i, id := range ids {
			rows[i] = UserRow{ID: id}
		}
		return printResult(c, rows)
	})
}
