// Package booking runs one wizard flow per request inside its own browser
// session and records what happened.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/centralino/internal/browser"
	"github.com/example/centralino/internal/fidy"
	"github.com/example/centralino/internal/journal"
	"github.com/example/centralino/internal/metrics"
	"github.com/example/centralino/internal/reservation"
)

// Opener hands out fresh, isolated browser sessions.
type Opener interface {
	Open(ctx context.Context, p browser.Profile) (*browser.Session, error)
}

// Recorder stores finished flows. It never influences a flow's result.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, journal.Entry) error { return nil }

// Result is a flow outcome tagged with the request it answers.
type Result struct {
	fidy.Outcome
	RequestID string `json:"request_id"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

type Service struct {
	Browser Opener
	Flow    *fidy.Flow
	Journal Recorder
	// DryRun is the default for booking requests that do not set their own.
	DryRun bool
	Logger *slog.Logger
}

const recordTimeout = 3 * time.Second

func (s *Service) CheckAvailability(ctx context.Context, req reservation.AvailabilityRequest) Result {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	start := time.Now()
	out := s.withSession(ctx, browser.AvailabilityProfile, func(sess *browser.Session) fidy.Outcome {
		return s.Flow.CheckAvailability(ctx, sess.Page(), req)
	})
	s.finish(ctx, "availability", start, out, journal.Entry{
		RequestID: req.RequestID,
		PartySize: req.PartySize,
		Date:      req.Date,
	})
	return Result{Outcome: out, RequestID: req.RequestID}
}

func (s *Service) Book(ctx context.Context, req reservation.BookingRequest) Result {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	dryRun := s.DryRun
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}
	start := time.Now()
	out := s.withSession(ctx, browser.BookingProfile, func(sess *browser.Session) fidy.Outcome {
		return s.Flow.Book(ctx, sess.Page(), req, dryRun)
	})
	s.finish(ctx, "booking", start, out, journal.Entry{
		RequestID: req.RequestID,
		PartySize: req.PartySize,
		Date:      req.Date,
		Time:      req.Time,
		DryRun:    dryRun,
	})
	return Result{Outcome: out, RequestID: req.RequestID, DryRun: dryRun}
}

// withSession opens a session, runs fn and closes the session on every path out.
func (s *Service) withSession(ctx context.Context, p browser.Profile, fn func(*browser.Session) fidy.Outcome) fidy.Outcome {
	sess, err := s.Browser.Open(ctx, p)
	if err != nil {
		s.logger().Error("open browser session", "profile", p.Name, "error", err)
		return fidy.Failed(fmt.Errorf("browser unavailable: %w", err))
	}
	metrics.SessionOpened()
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger().Warn("close browser session", "profile", p.Name, "error", err)
		}
		metrics.SessionClosed()
	}()
	return fn(sess)
}

func (s *Service) finish(ctx context.Context, flow string, start time.Time, out fidy.Outcome, e journal.Entry) {
	elapsed := time.Since(start)
	metrics.RecordFlow(flow, string(out.Status), elapsed)

	e.Flow = flow
	e.Status = string(out.Status)
	e.Reached = out.Reached.String()
	e.Message = out.Text()
	e.Venue = out.Venue
	e.Attempts = out.Attempts
	e.Duration = elapsed

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.journal().Record(rctx, e); err != nil {
		s.logger().Warn("journal record failed", "request_id", e.RequestID, "error", err)
	}
}

func (s *Service) journal() Recorder {
	if s.Journal == nil {
		return nopRecorder{}
	}
	return s.Journal
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
