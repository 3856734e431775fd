package cli

import (
	"context"

	"github.com/homedocks/homedocks-bot/pkg/cli/config"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdReconcile() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var discordCfg config.Discord

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, discordCfg.Flags()...)

	return &cli.Command{
		Name:  "reconcile",
		Usage: "Reconcile every managed posting once and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			setup, err := loadGuild(&appCfg)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx, setup.cfg.StateDir)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			client, err := discordCfg.Configure()
			if err != nil {
				return err
			}

			sink := auditlog.New(client, setup.guild.LogChannelID)
			uc, err := usecase.New(client, repo, sink, setup.guild, usecase.WithTemplates(setup.templates))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize usecases")
			}
			defer uc.Close()

			// Open returns after the ready payload, so the bot identity is known
			if err := client.Open(); err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					logging.Default().Error("failed to close discord gateway", "error", err.Error())
				}
			}()

			if err := uc.Bootstrap(ctx); err != nil {
				return goerr.Wrap(err, "reconcile pass finished with errors")
			}

			logging.Default().Info("Reconcile pass completed", "postings", len(setup.targets))
			return nil
		},
	}
}
