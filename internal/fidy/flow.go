// Package fidy drives the Fidy reservation wizard: an availability check and a
// full booking, each as an ordered sequence of steps over one page.
package fidy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/example/centralino/internal/reservation"
	"github.com/example/centralino/internal/step"
)

const (
	DefaultURL        = "https://rione.fidy.app/prenew.php"
	DefaultReferer    = "AI"
	DefaultNavTimeout = 30 * time.Second
	// SubmitWait bounds how long the contact form may take to go away after PRENOTA.
	SubmitWait = 15 * time.Second
)

// Flow holds what both wizard flows share. It is safe for concurrent use;
// every run keeps its state on the stack.
type Flow struct {
	URL               string
	Referer           string
	NavigationTimeout time.Duration
	Exec              *step.Executor
	Now               func() time.Time
	Logger            *slog.Logger
}

// run is the state of one flow execution.
type run struct {
	f    *Flow
	ctx  context.Context
	page step.Page
	log  *slog.Logger
	out  Outcome
}

func (f *Flow) start(ctx context.Context, page step.Page, flow, requestID string) *run {
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("flow", flow)
	if requestID != "" {
		log = log.With("request_id", requestID)
	}
	return &run{f: f, ctx: ctx, page: page, log: log}
}

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Flow) exec() *step.Executor {
	if f.Exec != nil {
		return f.Exec
	}
	return &step.Executor{}
}

func (f *Flow) target(referer string) (string, error) {
	base := f.URL
	if base == "" {
		base = DefaultURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse target url: %w", err)
	}
	if referer == "" {
		referer = f.Referer
	}
	if referer == "" {
		referer = DefaultReferer
	}
	q := u.Query()
	q.Set("referer", referer)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *run) do(s step.Step) (step.Attempt, error) {
	a, err := r.f.exec().Run(r.ctx, r.page, s)
	r.out.Attempts = append(r.out.Attempts, a)
	return a, err
}

// must runs required steps in order and moves to next once they all pass.
func (r *run) must(next State, steps ...step.Step) error {
	for _, s := range steps {
		if _, err := r.do(s); err != nil {
			return err
		}
	}
	r.out.Reached = next
	return nil
}

func (r *run) navigate(referer string) error {
	target, err := r.f.target(referer)
	if err != nil {
		return err
	}
	timeout := r.f.NavigationTimeout
	if timeout <= 0 {
		timeout = DefaultNavTimeout
	}
	r.log.Debug("navigating", "url", target)
	if err := r.page.Navigate(r.ctx, target, timeout); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	r.out.Reached = Navigated
	return nil
}

// opening runs the part of the wizard both flows share, up to the date branch.
func (r *run) opening(partySize string, highChairs int, date string, referer string) error {
	if err := r.navigate(referer); err != nil {
		return err
	}
	_, _ = r.do(cookieStep())
	r.out.Reached = CookieHandled

	if err := r.must(PartySizeSelected, partySizeStep(partySize)); err != nil {
		return err
	}
	if err := r.must(HighchairHandled, highchairSteps(highChairs)...); err != nil {
		return err
	}
	return r.dateBranch(date)
}

func (r *run) dateBranch(date string) error {
	bucket := reservation.ClassifyDate(date, r.f.now())
	r.log.Debug("date branch", "date", date, "bucket", bucket.String())
	switch bucket {
	case reservation.Today:
		return r.must(DateBranchSelected, quickDateStep("date-today", todayRE, date, r.shown(dateButton(date))))
	case reservation.Tomorrow:
		return r.must(DateBranchSelected, quickDateStep("date-tomorrow", tomorrowRE, date, r.shown(dateButton(date))))
	}
	if err := r.must(DateBranchSelected, otherDateSteps(date)...); err != nil {
		return err
	}
	if a, _ := r.do(dateConfirmStep()); a.Found {
		r.out.Reached = DateConfirmed
	}
	return nil
}

// shown reports whether m is on the page right now. A failed count reads as absent.
func (r *run) shown(m step.Match) bool {
	n, err := r.page.Count(r.ctx, m)
	if err != nil {
		r.log.Debug("count failed", "match", m.String(), "error", err)
		return false
	}
	return n > 0
}

// finish converts the run into its terminal outcome.
func (r *run) finish(err error) Outcome {
	if err != nil {
		return r.fail(failureText(err), err)
	}
	r.log.Info("flow finished", "status", string(r.out.Status), "reached", r.out.Reached.String())
	return r.out
}

func (r *run) fail(msg string, err error) Outcome {
	r.out.Status = StatusError
	r.out.Success = ""
	r.out.Failure = "Error: " + msg
	r.out.Err = err
	r.log.Warn("flow failed", "reached", r.out.Reached.String(), "error", err)
	return r.out
}

func (r *run) recovered(p any) Outcome {
	err := fmt.Errorf("panic: %v", p)
	return r.fail(err.Error(), err)
}

// failureText keeps required-step failures short; the strategy causes go to the log.
func failureText(err error) string {
	var se *step.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return fmt.Sprintf("%s step interrupted: %v", se.Step, context.DeadlineExceeded)
		case errors.Is(err, context.Canceled):
			return fmt.Sprintf("%s step interrupted: %v", se.Step, context.Canceled)
		}
		return fmt.Sprintf("required step %q failed", se.Step)
	}
	return err.Error()
}

// CheckAvailability walks the wizard up to the date selection and reports
// whether it accepted the party on that date.
func (f *Flow) CheckAvailability(ctx context.Context, page step.Page, req reservation.AvailabilityRequest) (out Outcome) {
	r := f.start(ctx, page, "availability", req.RequestID)
	defer func() {
		if p := recover(); p != nil {
			out = r.recovered(p)
		}
	}()

	if err := r.opening(req.PartySize, 0, req.Date, ""); err != nil {
		return r.finish(err)
	}
	r.out.Status = StatusOK
	r.out.Success = fmt.Sprintf("Seats available for %s on %s.", req.PartySize, req.Date)
	r.out.Reached = Done
	return r.finish(nil)
}

// Book completes the wizard for req. With dryRun the contact form is filled
// but never submitted.
func (f *Flow) Book(ctx context.Context, page step.Page, req reservation.BookingRequest, dryRun bool) (out Outcome) {
	r := f.start(ctx, page, "booking", req.RequestID)
	defer func() {
		if p := recover(); p != nil {
			out = r.recovered(p)
		}
	}()

	// Everything derived from the request is settled before the page is touched.
	r.out.Venue = reservation.ResolveVenue(req.Venue)
	meal := reservation.MealFor(req.Time, req.Meal)
	r.out.Meal = meal.Label()
	first, last := reservation.SplitName(req.CustomerName)
	if last == "" {
		last = first
	}
	phone, err := reservation.FormPhone(req.Phone)
	if err != nil {
		return r.finish(err)
	}
	r.log.Debug("booking resolved", "venue", r.out.Venue, "meal", r.out.Meal, "dry_run", dryRun)

	if err := r.opening(req.PartySize, req.HighChairs, req.Date, req.Referer); err != nil {
		return r.finish(err)
	}
	if err := r.must(MealSelected, mealStep(r.out.Meal)); err != nil {
		return r.finish(err)
	}
	if err := r.must(VenueSelected, venueStep(r.out.Venue)); err != nil {
		return r.finish(err)
	}
	if err := r.must(TimeSelected, timeStep(req.Time)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return r.finish(err)
		}
		return r.fail(fmt.Sprintf("time %s not available", req.Time), err)
	}
	if req.Note != "" {
		_, _ = r.do(noteStep(req.Note))
	}
	if err := r.must(DetailsConfirmed, confirmDetailsStep(), contactFormStep()); err != nil {
		return r.finish(err)
	}
	if err := r.must(ContactFilled, contactSteps(first, last, req.Email, phone)...); err != nil {
		return r.finish(err)
	}

	if dryRun {
		r.out.Status = StatusDryRun
		r.out.Success = fmt.Sprintf("Dry run: booking at %s on %s at %s for %s ready, not submitted.",
			r.out.Venue, req.Date, req.Time, req.PartySize)
		r.out.Reached = Done
		return r.finish(nil)
	}

	if err := r.must(Submitted, submitStep(), submittedStep(SubmitWait)); err != nil {
		return r.finish(err)
	}
	r.out.Status = StatusOK
	r.out.Success = fmt.Sprintf("Booking confirmed at %s on %s at %s for %s.",
		r.out.Venue, req.Date, req.Time, req.PartySize)
	r.out.Reached = Done
	return r.finish(nil)
}
