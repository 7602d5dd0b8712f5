package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/centralino/internal/booking"
	"github.com/example/centralino/internal/browser"
	"github.com/example/centralino/internal/config"
	"github.com/example/centralino/internal/db"
	"github.com/example/centralino/internal/fidy"
	"github.com/example/centralino/internal/journal"
	"github.com/example/centralino/internal/metrics"
	"github.com/example/centralino/internal/migrate"
	"github.com/example/centralino/internal/step"
)

func newFlow(cfg config.Config) *fidy.Flow {
	return &fidy.Flow{
		URL:               cfg.BaseURL,
		Referer:           cfg.Referer,
		NavigationTimeout: cfg.NavigationTimeout,
		Exec: &step.Executor{
			OptionalTimeout: cfg.OptionalTimeout,
			SettleTimeout:   cfg.SettleTimeout,
			Logger:          slog.Default(),
			Observe: func(a step.Attempt) {
				metrics.RecordStep(a.Step, a.Found, a.Optional)
			},
		},
		Logger: slog.Default(),
	}
}

func startBrowser(cfg config.Config) (*browser.Launcher, error) {
	lc := browser.DefaultLaunchConfig()
	lc.Headless = cfg.Headless
	lc.InstallBrowsers = cfg.InstallBrowsers
	lc.ActionTimeout = cfg.ActionTimeout
	lc.NavigationTimeout = cfg.NavigationTimeout
	return browser.Start(lc, slog.Default())
}

// openJournal connects and migrates when DATABASE_URL is set. The returned
// close func is always safe to call.
func openJournal(ctx context.Context, cfg config.Config, migrateUp bool) (*journal.Repo, func(), error) {
	if !cfg.JournalEnabled() {
		return nil, func() {}, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, nil, err
		}
	}
	return journal.NewRepo(d), d.Close, nil
}

func newService(cfg config.Config, l *browser.Launcher, j *journal.Repo) *booking.Service {
	svc := &booking.Service{
		Browser: l,
		Flow:    newFlow(cfg),
		DryRun:  cfg.DryRun,
		Logger:  slog.Default(),
	}
	if j != nil {
		svc.Journal = j
	}
	return svc
}
