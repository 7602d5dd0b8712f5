package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/centralino/internal/metrics"
)

type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically drops journal entries older than Retention.
type Sweeper struct {
	Repo      Pruner
	Interval  time.Duration
	Retention time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-s.Retention)
	n, err := s.Repo.Prune(ctx, cutoff)
	if err != nil {
		log.Error("journal prune failed", "error", err)
		return
	}
	metrics.RecordPruned(n)
	if n > 0 {
		log.Info("journal pruned", "rows", n, "cutoff", cutoff)
	}
}
