package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/centralino/internal/auth"
	"github.com/example/centralino/internal/scheduler"
	"github.com/example/centralino/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the webhooks (and prune the journal when one is configured)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			repo, closeDB, err := openJournal(ctx, cfg, migrateUp)
			if err != nil {
				return err
			}
			defer closeDB()

			launcher, err := startBrowser(cfg)
			if err != nil {
				return err
			}
			defer func() {
				slog.Info("shutting down", "open_sessions", launcher.OpenSessions())
				if err := launcher.Stop(); err != nil {
					slog.Error("stop browser", "error", err)
				}
			}()

			ws := &web.Server{
				Flows:              newService(cfg, launcher, repo),
				AllowedOrigins:     cfg.AllowedOrigins,
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				PhoneRegion:        cfg.PhoneRegion,
				OpenSessions:       launcher.OpenSessions,
				Logger:             slog.Default(),
			}
			if cfg.TokensEnabled() {
				ws.Tokens = auth.NewTokens(cfg.TokenHashKey, cfg.TokenBlockKey, 0)
			}
			slog.Info("starting",
				"version", Version,
				"dry_run", cfg.DryRun,
				"journal", cfg.JournalEnabled(),
				"tokens", cfg.TokensEnabled(),
				"target", cfg.BaseURL,
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return web.Start(gctx, cfg.ListenAddr, ws.Routes())
			})
			if repo != nil {
				sw := &scheduler.Sweeper{
					Repo:      repo,
					Interval:  cfg.SweepInterval,
					Retention: cfg.JournalRetention,
					Logger:    slog.Default(),
				}
				g.Go(func() error {
					if err := sw.Run(gctx); err != nil && gctx.Err() == nil {
						return err
					}
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run journal migrations on startup")
	return cmd
}
