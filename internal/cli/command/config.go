package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/cli/output"
	"github.com/yndnr/filegate/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "check",
				Usage:  "Validate the configuration",
				Action: configCheck,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	_, cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	format := ParseGlobalFlags(c).Output
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, config.Sanitize(cfg))
}

func configCheck(c *cli.Context) error {
	loader, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	source := loader.FilePath()
	if source == "" {
		source = "defaults and environment"
	}
	_, err = fmt.Fprintf(c.App.Writer, "configuration OK (%s)\n", source)
	return err
}
