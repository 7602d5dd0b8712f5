package step

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Page when no element answers a Match within the timeout.
var ErrNotFound = errors.New("element not found")

// Options bound a single interaction.
type Options struct {
	Timeout time.Duration
	// Force skips actionability checks (visibility, occlusion, enabled state).
	Force bool
}

// Page is the set of browser primitives a Step may use. Implementations must
// report a missing element with an error wrapping ErrNotFound.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Click(ctx context.Context, m Match, opts Options) error
	Fill(ctx context.Context, m Match, value string, opts Options) error
	// SetValue assigns the value programmatically and dispatches input and change events.
	SetValue(ctx context.Context, m Match, value string, opts Options) error
	Press(ctx context.Context, m Match, key string, opts Options) error
	// Select picks an option of a <select> by value, then by label.
	Select(ctx context.Context, m Match, value string, opts Options) error
	WaitVisible(ctx context.Context, m Match, opts Options) error
	WaitHidden(ctx context.Context, m Match, opts Options) error
	Count(ctx context.Context, m Match) (int, error)
	// Settle waits until the page stops loading resources triggered by the last interaction.
	Settle(ctx context.Context, timeout time.Duration) error
}
