package config

import (
	"log/slog"

	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Discord holds the bot credentials
type Discord struct {
	token string
}

func (x *Discord) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "discord-token",
			Usage:       "Discord bot token",
			Category:    "Discord",
			Sources:     cli.EnvVars("HOMEDOCKS_DISCORD_TOKEN"),
			Destination: &x.token,
		},
	}
}

func (x Discord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("token.len", len(x.token)),
	)
}

// Configure creates a gateway client. The session is not opened.
func (x *Discord) Configure() (*discord.Client, error) {
	if x.token == "" {
		return nil, goerr.Wrap(ErrMissingToken, "--discord-token is required")
	}

	client, err := discord.New(x.token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create discord client")
	}
	return client, nil
}
