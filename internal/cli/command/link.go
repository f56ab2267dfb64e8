package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/cli/output"
	"github.com/yndnr/filegate/pkg/deeplink"
)

// LinkCommand returns the command that prints deep links.
func LinkCommand() *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Print the deep link for one channel message or a range",
		Description: "Without --channel the database channel and batch limit are taken from the configuration.\n" +
			"A range with --last below --first is delivered newest first.",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "first",
				Aliases:  []string{"f"},
				Usage:    "Message id, or the first id of a range",
				Required: true,
			},
			&cli.Int64Flag{
				Name:    "last",
				Aliases: []string{"l"},
				Usage:   "Last message id of a range",
			},
			&cli.StringFlag{
				Name:     "bot",
				Aliases:  []string{"b"},
				Usage:    "Bot username",
				EnvVars:  []string{"FILEGATE_BOT_USERNAME"},
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "channel",
				Usage: "Database channel id (overrides the configuration)",
			},
		},
		Action: linkAction,
	}
}

// Link is a generated deep link.
type Link struct {
	First   int64  `json:"first" yaml:"first"`
	Last    int64  `json:"last" yaml:"last"`
	Count   int64  `json:"count" yaml:"count"`
	Payload string `json:"payload" yaml:"payload"`
	URL     string `json:"url" yaml:"url"`
}

func linkAction(c *cli.Context) error {
	channelID := c.Int64("channel")
	maxBatch := deeplink.DefaultMaxBatch
	if channelID == 0 {
		_, cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		channelID = cfg.Channels.DatabaseID
		maxBatch = cfg.Delivery.MaxBatch
	}

	codec, err := deeplink.NewCodec(channelID, deeplink.WithMaxBatch(maxBatch))
	if err != nil {
		return err
	}
	link, err := makeLink(codec, c.Int64("first"), c.Int64("last"), c.IsSet("last"))
	if err != nil {
		return err
	}
	link.URL = deeplink.URL(c.String("bot"), link.Payload)

	if ParseGlobalFlags(c).Output == output.FormatTable {
		_, err := fmt.Fprintln(c.App.Writer, link.URL)
		return err
	}
	return printResult(c, link)
}

// makeLink encodes the ids and decodes the result again, so a link the bot
// would reject is never printed.
func makeLink(codec *deeplink.Codec, first, last int64, isRange bool) (*Link, error) {
	if first <= 0 || (isRange && last <= 0) {
		return nil, errors.New("message ids must be positive")
	}

	payload := codec.EncodeSingle(first)
	if isRange {
		payload = codec.EncodeRange(first, last)
	}
	decoded, err := codec.Decode(payload)
	if err != nil {
		return nil, err
	}
	return &Link{
		First:   decoded.Start,
		Last:    decoded.End,
		Count:   decoded.Len(),
		Payload: payload,
	}, nil
}
