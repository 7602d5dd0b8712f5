// Package steptest provides a scriptable step.Page for tests.
package steptest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/centralino/internal/step"
)

// Call is one recorded interaction.
type Call struct {
	Op    string
	Match string
	Value string
	Force bool
}

func (c Call) String() string {
	s := c.Op + " " + c.Match
	if c.Value != "" {
		s += " = " + c.Value
	}
	if c.Force {
		s += " (force)"
	}
	return s
}

// FakePage records every call. Elements are present unless a substring of
// their Match description is listed in Absent; elements listed in ForceOnly
// only answer forced interactions.
type FakePage struct {
	NavigateErr error
	Absent      []string
	ForceOnly   []string
	Counts      map[string]int
	// Hook, if set, may fail any interaction after the presence checks.
	Hook func(Call) error
	// Delay is slept (respecting ctx) before each interaction.
	Delay time.Duration

	mu    sync.Mutex
	calls []Call
	url   string
}

var _ step.Page = (*FakePage)(nil)

func (f *FakePage) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Ops returns the recorded calls rendered as strings, settles excluded.
func (f *FakePage) Ops() []string {
	var out []string
	for _, c := range f.Calls() {
		if c.Op == "settle" {
			continue
		}
		out = append(out, c.String())
	}
	return out
}

func (f *FakePage) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *FakePage) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *FakePage) act(ctx context.Context, op string, m step.Match, value string, opts step.Options) error {
	if f.Delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(f.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c := Call{Op: op, Match: m.String(), Value: value, Force: opts.Force}
	f.record(c)
	if containsAny(c.Match, f.Absent) {
		return fmt.Errorf("%w: %s", step.ErrNotFound, c.Match)
	}
	if !opts.Force && containsAny(c.Match, f.ForceOnly) {
		return fmt.Errorf("%w: %s is covered by another element", step.ErrNotFound, c.Match)
	}
	if f.Hook != nil {
		return f.Hook(c)
	}
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (f *FakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.record(Call{Op: "navigate", Value: url})
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
	return nil
}

func (f *FakePage) Click(ctx context.Context, m step.Match, opts step.Options) error {
	return f.act(ctx, "click", m, "", opts)
}

func (f *FakePage) Fill(ctx context.Context, m step.Match, value string, opts step.Options) error {
	return f.act(ctx, "fill", m, value, opts)
}

func (f *FakePage) SetValue(ctx context.Context, m step.Match, value string, opts step.Options) error {
	return f.act(ctx, "set", m, value, opts)
}

func (f *FakePage) Press(ctx context.Context, m step.Match, key string, opts step.Options) error {
	return f.act(ctx, "press", m, key, opts)
}

func (f *FakePage) Select(ctx context.Context, m step.Match, value string, opts step.Options) error {
	return f.act(ctx, "select", m, value, opts)
}

func (f *FakePage) WaitVisible(ctx context.Context, m step.Match, opts step.Options) error {
	return f.act(ctx, "wait", m, "", opts)
}

func (f *FakePage) WaitHidden(ctx context.Context, m step.Match, opts step.Options) error {
	return f.act(ctx, "gone", m, "", opts)
}

func (f *FakePage) Count(ctx context.Context, m step.Match) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	desc := m.String()
	f.record(Call{Op: "count", Match: desc})
	if containsAny(desc, f.Absent) {
		return 0, nil
	}
	for k, n := range f.Counts {
		if strings.Contains(desc, k) {
			return n, nil
		}
	}
	return 1, nil
}

func (f *FakePage) Settle(ctx context.Context, timeout time.Duration) error {
	f.record(Call{Op: "settle"})
	return ctx.Err()
}
