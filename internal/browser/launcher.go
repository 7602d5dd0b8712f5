// Package browser owns the headless Chromium used by the reservation flows:
// one fresh browser per request, with a request filter installed before any
// navigation.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LaunchConfig is process-wide browser tuning, fixed at startup.
type LaunchConfig struct {
	Headless bool
	// Args are passed to every Chromium process (sandbox, shm and GPU flags).
	Args []string
	// InstallBrowsers downloads the driver and Chromium on Start when missing.
	InstallBrowsers bool
	// ActionTimeout is the page-wide default for any interaction without its own bound.
	ActionTimeout time.Duration
	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
}

func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		Headless:          true,
		Args:              []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
		ActionTimeout:     20 * time.Second,
		NavigationTimeout: 30 * time.Second,
	}
}

// Viewport is a page size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Profile is the device identity a session presents to the target site.
type Profile struct {
	Name      string
	Viewport  Viewport
	UserAgent string
	Mobile    bool
	Locale    string
}

const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"

var mobileViewport = Viewport{Width: 390, Height: 844}

var (
	AvailabilityProfile = Profile{Name: "availability", Viewport: mobileViewport, Locale: "it-IT"}
	BookingProfile      = Profile{Name: "booking", Viewport: mobileViewport, UserAgent: MobileUserAgent, Mobile: true, Locale: "it-IT"}
)

// Launcher starts one Chromium per session on top of a shared playwright driver.
type Launcher struct {
	cfg  LaunchConfig
	pw   *playwright.Playwright
	log  *slog.Logger
	open atomic.Int64
}

// Start boots the playwright driver. Browsers are launched lazily by Open.
func Start(cfg LaunchConfig, log *slog.Logger) (*Launcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.InstallBrowsers {
		log.Info("installing playwright driver and chromium")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	log.Info("playwright started", "headless", cfg.Headless)
	return &Launcher{cfg: cfg, pw: pw, log: log}, nil
}

// OpenSessions is the number of sessions not yet closed.
func (l *Launcher) OpenSessions() int64 { return l.open.Load() }

// Open launches a fresh browser and isolated context for one request. The
// session is closed automatically if ctx ends first.
func (l *Launcher) Open(ctx context.Context, p Profile) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.cfg.Headless),
		Args:     l.cfg.Args,
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: p.Viewport.Width, Height: p.Viewport.Height},
		IsMobile: playwright.Bool(p.Mobile),
		HasTouch: playwright.Bool(p.Mobile),
	}
	if p.UserAgent != "" {
		opts.UserAgent = playwright.String(p.UserAgent)
	}
	if p.Locale != "" {
		opts.Locale = playwright.String(p.Locale)
	}
	bc, err := b.NewContext(opts)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("new context: %w", err)
	}
	if err := installFilter(bc, l.log); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("install request filter: %w", err)
	}
	pg, err := bc.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	pg.SetDefaultTimeout(millis(l.cfg.ActionTimeout))
	pg.SetDefaultNavigationTimeout(millis(l.cfg.NavigationTimeout))

	l.open.Add(1)
	s := NewSession(&pwPage{page: pg}, func() error {
		defer l.open.Add(-1)
		return errors.Join(bc.Close(), b.Close())
	})
	s.closeWith(ctx)
	return s, nil
}

// Stop shuts the playwright driver down.
func (l *Launcher) Stop() error {
	if n := l.open.Load(); n > 0 {
		l.log.Warn("stopping playwright with open sessions", "open", n)
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	l.log.Info("playwright stopped")
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
