// Package step performs single wizard interactions with ordered fallback strategies.
package step

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrRequired is wrapped by every failure of a required step.
var ErrRequired = errors.New("required step failed")

// Action is what a Strategy does to the element it finds.
type Action int

const (
	Click Action = iota
	Fill
	SetValue
	Press
	Select
	WaitVisible
	WaitHidden
)

func (a Action) String() string {
	switch a {
	case Click:
		return "click"
	case Fill:
		return "fill"
	case SetValue:
		return "set-value"
	case Press:
		return "press"
	case Select:
		return "select"
	case WaitVisible:
		return "wait-visible"
	case WaitHidden:
		return "wait-hidden"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Strategy is one way of performing a step.
type Strategy struct {
	Label  string
	Match  Match
	Action Action
	Value  string // text for Fill/SetValue/Select, key for Press
	Force  bool
}

// Step is one logical interaction with its strategies in preference order.
type Step struct {
	Name       string
	Optional   bool
	Timeout    time.Duration // zero picks the executor default for the step's optionality
	Strategies []Strategy
}

// Attempt reports how a step went. For optional steps Found=false means the
// target was absent and the flow moved on.
type Attempt struct {
	Step     string        `json:"step"`
	Optional bool          `json:"optional,omitempty"`
	Found    bool          `json:"found"`
	Strategy string        `json:"strategy,omitempty"`
	Tried    int           `json:"tried"`
	Elapsed  time.Duration `json:"elapsed"`
	Causes   []error       `json:"-"`
}

// Error is returned when a required step exhausted every strategy.
type Error struct {
	Step   string
	Causes []error
}

func (e *Error) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("%s: no strategy configured", e.Step)
	}
	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("%s: %s", e.Step, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() []error {
	return append([]error{ErrRequired}, e.Causes...)
}

// Executor runs steps against a Page.
type Executor struct {
	OptionalTimeout time.Duration
	RequiredTimeout time.Duration
	SettleTimeout   time.Duration

	Logger *slog.Logger
	// Observe, if set, sees every finished attempt.
	Observe func(Attempt)
}

const (
	DefaultOptionalTimeout = 1500 * time.Millisecond
	DefaultRequiredTimeout = 5 * time.Second
	DefaultSettleTimeout   = 2 * time.Second
)

// Run tries each strategy in order until one succeeds. Optional steps never
// return an error; required steps return *Error once every strategy failed.
func (e *Executor) Run(ctx context.Context, p Page, s Step) (Attempt, error) {
	start := time.Now()
	a := Attempt{Step: s.Name, Optional: s.Optional}
	timeout := e.timeoutFor(s)
	log := e.logger().With("step", s.Name)

	for _, strat := range s.Strategies {
		if err := ctx.Err(); err != nil {
			a.Causes = append(a.Causes, err)
			break
		}
		a.Tried++
		err := perform(ctx, p, strat, Options{Timeout: timeout, Force: strat.Force})
		if err == nil {
			a.Found = true
			a.Strategy = strat.Label
			break
		}
		log.Debug("strategy failed", "strategy", strat.Label, "match", strat.Match.String(), "error", err)
		a.Causes = append(a.Causes, fmt.Errorf("%s: %w", strat.Label, err))
	}

	if a.Found {
		if err := p.Settle(ctx, e.settleTimeout()); err != nil {
			log.Debug("page did not settle", "error", err)
		}
	}
	a.Elapsed = time.Since(start)
	if e.Observe != nil {
		e.Observe(a)
	}

	switch {
	case a.Found:
		log.Debug("step done", "strategy", a.Strategy, "elapsed", a.Elapsed)
		return a, nil
	case s.Optional:
		log.Debug("optional step skipped", "tried", a.Tried)
		return a, nil
	default:
		log.Warn("required step failed", "tried", a.Tried)
		return a, &Error{Step: s.Name, Causes: a.Causes}
	}
}

func perform(ctx context.Context, p Page, s Strategy, opts Options) error {
	switch s.Action {
	case Click:
		return p.Click(ctx, s.Match, opts)
	case Fill:
		return p.Fill(ctx, s.Match, s.Value, opts)
	case SetValue:
		return p.SetValue(ctx, s.Match, s.Value, opts)
	case Press:
		return p.Press(ctx, s.Match, s.Value, opts)
	case Select:
		return p.Select(ctx, s.Match, s.Value, opts)
	case WaitVisible:
		return p.WaitVisible(ctx, s.Match, opts)
	case WaitHidden:
		return p.WaitHidden(ctx, s.Match, opts)
	}
	return fmt.Errorf("unsupported action %s", s.Action)
}

func (e *Executor) timeoutFor(s Step) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	if s.Optional {
		if e.OptionalTimeout > 0 {
			return e.OptionalTimeout
		}
		return DefaultOptionalTimeout
	}
	if e.RequiredTimeout > 0 {
		return e.RequiredTimeout
	}
	return DefaultRequiredTimeout
}

func (e *Executor) settleTimeout() time.Duration {
	if e.SettleTimeout > 0 {
		return e.SettleTimeout
	}
	return DefaultSettleTimeout
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
