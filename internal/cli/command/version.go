package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/cli/output"
	"github.com/yndnr/filegate/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			if ParseGlobalFlags(c).Output == output.FormatTable {
				_, err := fmt.Fprintf(c.App.Writer, "filegate %s\n", buildinfo.String())
				return err
			}
			return printResult(c, buildinfo.Get())
		},
	}
}
