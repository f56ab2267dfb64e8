package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/server/config"
	"github.com/yndnr/filegate/internal/storage"
)

// MaxMint caps how many tokens one mint call creates.
const MaxMint = 1000

// TokensCommand returns the tokens subcommand group.
func TokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "tokens",
		Usage: "Manage access tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "mint",
				Usage: "Create tokens users can claim with /token",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of tokens to create",
						Value:   1,
					},
				},
				Action: tokensMint,
			},
		},
	}
}

// MintedToken is one claimable token.
type MintedToken struct {
	Token string `json:"token" yaml:"token"`
}

func tokensMint(c *cli.Context) error {
	n := c.Int("count")
	if n < 1 || n > MaxMint {
		return fmt.Errorf("--count must be between 1 and %d", MaxMint)
	}

	return withStore(c, func(ctx context.Context, cfg *config.Config, s storage.Store) error {
		tokens := service.NewTokenService(s, &service.TokenServiceConfig{TTL: cfg.Bot.TokenTTL})
		minted, err := tokens.Mint(ctx, n)
		if err != nil {
			return fmt.Errorf("mint tokens: %w", err)
		}

		out := make([]MintedToken, len(minted))
		for i, t := range minted {
			out[i] = MintedToken{Token: t}
		}
		return printResult(c, out)
	})
}
