package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/cli/config"
	"github.com/homedocks/homedocks-bot/pkg/controller/gateway"
	httpctrl "github.com/homedocks/homedocks-bot/pkg/controller/http"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/worker"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var reconcileInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var discordCfg config.Discord

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Health server address (empty disables the server)",
			Sources:     cli.EnvVars("HOMEDOCKS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "reconcile-interval",
			Usage:       "Interval of the periodic reconcile pass (0 disables it)",
			Value:       time.Hour,
			Sources:     cli.EnvVars("HOMEDOCKS_RECONCILE_INTERVAL"),
			Destination: &reconcileInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, discordCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Connect to the gateway and serve the guild",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			setup, err := loadGuild(&appCfg)
			if err != nil {
				return err
			}
			guild := setup.guild

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

			sink := auditlog.New(client, guild.LogChannelID)
			uc, err := usecase.New(client, repo, sink, guild, usecase.WithTemplates(setup.templates))
			if err != nil {
				return goerr.Wrap(err, "failed to initialize usecases")
			}
			defer uc.Close()

			gateway.New(client, uc, sink, guild.GuildID).Register(client)

			if err := client.Open(); err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					logging.Default().Error("failed to close discord gateway", "error", err.Error())
				}
			}()
			logging.Default().Info("Connected to Discord gateway", "guild_id", guild.GuildID, "discord", discordCfg)

			var reconcileWorker *worker.ReconcileWorker
			if reconcileInterval > 0 {
				reconcileWorker = worker.NewReconcileWorker(uc, reconcileInterval)
				if err := reconcileWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start reconcile worker")
				}
			}

			var server *http.Server
			errCh := make(chan error, 1)
			if addr != "" {
				server = &http.Server{
					Addr: addr,
					Handler: httpctrl.New(
						httpctrl.WithStatus(uc),
						httpctrl.WithVersion(version),
					),
					ReadHeaderTimeout: 30 * time.Second,
				}
				go func() {
					logging.Default().Info("Starting health server", "addr", addr)
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						errCh <- goerr.Wrap(err, "failed to start server")
					}
				}()
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			var runErr error
			select {
			case err := <-errCh:
				runErr = err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logging.Default().Info("Context cancelled, shutting down")
			}

			if reconcileWorker != nil {
				reconcileWorker.Stop()
			}

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
					runErr = goerr.Wrap(err, "failed to shutdown server gracefully")
				}
			}

			logging.Default().Info("Shutdown completed")
			return runErr
		},
	}
}
