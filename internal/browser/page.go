package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/example/centralino/internal/step"
)

// pwPage adapts a playwright page to step.Page.
type pwPage struct {
	page playwright.Page
}

var _ step.Page = (*pwPage)(nil)

const setValueJS = `(el, v) => {
	el.value = v;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
}`

// exactTextRE matches an element whose whole visible text is text, ignoring
// surrounding whitespace.
func exactTextRE(text string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(text) + `\s*$`)
}

// roleOptions matches the accessible name case-insensitively as a substring.
func roleOptions(m step.Match) playwright.PageGetByRoleOptions {
	var opts playwright.PageGetByRoleOptions
	if m.Text != "" {
		opts.Name = m.Text
	}
	return opts
}

func (p *pwPage) locate(m step.Match) playwright.Locator {
	switch m.Kind {
	case step.KindText:
		if m.Scope == "" {
			return p.page.GetByText(m.Text, playwright.PageGetByTextOptions{Exact: playwright.Bool(true)})
		}
		return p.page.Locator(m.Scope).Filter(playwright.LocatorFilterOptions{HasText: exactTextRE(m.Text)})
	case step.KindPattern:
		if m.Scope == "" {
			return p.page.GetByText(m.Pattern)
		}
		return p.page.Locator(m.Scope).Filter(playwright.LocatorFilterOptions{HasText: m.Pattern})
	case step.KindRole:
		return p.page.GetByRole(playwright.AriaRole(m.Role), roleOptions(m))
	default:
		return p.page.Locator(m.CSS)
	}
}

func (p *pwPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(millis(timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *pwPage) Click(ctx context.Context, m step.Match, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.locate(m).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(millis(opts.Timeout)),
		Force:   playwright.Bool(opts.Force),
	})
	return translate(m, err)
}

func (p *pwPage) Fill(ctx context.Context, m step.Match, value string, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.locate(m).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(millis(opts.Timeout)),
		Force:   playwright.Bool(opts.Force),
	})
	return translate(m, err)
}

func (p *pwPage) SetValue(ctx context.Context, m step.Match, value string, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.locate(m).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(opts.Timeout)),
	}); err != nil {
		return translate(m, err)
	}
	_, err := loc.Evaluate(setValueJS, value, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(millis(opts.Timeout)),
	})
	return translate(m, err)
}

func (p *pwPage) Press(ctx context.Context, m step.Match, key string, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.locate(m).First().Press(key, playwright.LocatorPressOptions{
		Timeout: playwright.Float(millis(opts.Timeout)),
	})
	return translate(m, err)
}

// Select waits for the option to appear, matching by value first and by label second.
func (p *pwPage) Select(ctx context.Context, m step.Match, value string, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.locate(m).First()
	half := playwright.Float(millis(opts.Timeout / 2))
	_, err := loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: half, Force: playwright.Bool(opts.Force)})
	if err == nil {
		return nil
	}
	_, lerr := loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: half, Force: playwright.Bool(opts.Force)})
	if lerr == nil {
		return nil
	}
	return translate(m, errors.Join(err, lerr))
}

func (p *pwPage) WaitVisible(ctx context.Context, m step.Match, opts step.Options) error {
	return p.waitFor(ctx, m, playwright.WaitForSelectorStateVisible, opts)
}

func (p *pwPage) WaitHidden(ctx context.Context, m step.Match, opts step.Options) error {
	return p.waitFor(ctx, m, playwright.WaitForSelectorStateHidden, opts)
}

func (p *pwPage) waitFor(ctx context.Context, m step.Match, state *playwright.WaitForSelectorState, opts step.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.locate(m).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(millis(opts.Timeout)),
	})
	return translate(m, err)
}

func (p *pwPage) Count(ctx context.Context, m step.Match) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.locate(m).Count()
}

// Settle waits for the network to go idle after an interaction.
func (p *pwPage) Settle(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(millis(timeout)),
	})
}

// translate maps playwright timeouts onto step.ErrNotFound.
func translate(m step.Match, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s: %v", step.ErrNotFound, m, err)
	}
	return fmt.Errorf("%s: %w", m, err)
}
