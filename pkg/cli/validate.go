package cli

import (
	"context"

	"github.com/homedocks/homedocks-bot/pkg/cli/config"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// guildSetup is the validated configuration shared by every command
type guildSetup struct {
	cfg       *config.GuildConfig
	guild     *model.Guild
	templates *usecase.Templates
	targets   []usecase.Target
}

func loadGuild(appCfg *config.AppConfig) (*guildSetup, error) {
	cfg, err := appCfg.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load guild configuration")
	}

	templates, err := usecase.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load posting templates", goerr.V("dir", cfg.TemplatesDir))
	}

	guild := cfg.ToDomainGuild()
	targets, err := templates.Targets(guild)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render managed postings")
	}

	return &guildSetup{
		cfg:       cfg,
		guild:     guild,
		templates: templates,
		targets:   targets,
	}, nil
}

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the guild configuration and posting templates",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			setup, err := loadGuild(&appCfg)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			guild := setup.guild
			logger.Info("Configuration validation passed",
				"config", appCfg.Path(),
				"guild_id", guild.GuildID,
				"staff_roles", len(guild.StaffRoleIDs),
				"support_channels", len(guild.SupportChannels),
				"role_bindings", len(guild.ReactionRoles.Bindings),
				"confirmation_timeout", guild.ConfirmationTTL(),
				"transcript_limit", guild.MaxTranscriptMessages(),
				"state_dir", setup.cfg.StateDir,
				"templates_dir", setup.cfg.TemplatesDir,
			)

			for _, target := range setup.targets {
				logger.Info("Managed posting",
					"key", target.Key.String(),
					"channel_id", target.ChannelID,
					"title", target.Content.Title,
				)
			}

			if len(guild.ReactionRoles.Bindings) > 0 {
				anchor := "managed posting"
				if guild.ReactionRoles.AnchorMessageID != "" {
					anchor = guild.ReactionRoles.AnchorMessageID
				}
				logger.Info("Role selection",
					"channel_id", guild.ReactionRoles.ChannelID,
					"anchor", anchor,
				)
			}

			return nil
		},
	}
}
