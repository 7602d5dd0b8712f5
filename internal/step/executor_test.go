package step_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/centralino/internal/step"
	"github.com/example/centralino/internal/step/steptest"
)

func partySize(n string) step.Step {
	return step.Step{
		Name: "party-size",
		Strategies: []step.Strategy{
			{Label: "exact", Match: step.ExactText("button, div", n)},
			{Label: "forced", Match: step.TextPattern("", regexp.MustCompile(`^\s*`+n+`\s*$`)), Force: true},
		},
	}
}

func TestRunPrimaryStrategyWins(t *testing.T) {
	page := &steptest.FakePage{}
	var seen []step.Attempt
	ex := &step.Executor{Observe: func(a step.Attempt) { seen = append(seen, a) }}

	a, err := ex.Run(context.Background(), page, partySize("2"))
	require.NoError(t, err)
	assert.True(t, a.Found)
	assert.Equal(t, "exact", a.Strategy)
	assert.Equal(t, 1, a.Tried)
	assert.Equal(t, []string{`click text "2" in button, div`}, page.Ops())
	require.Len(t, seen, 1)

	calls := page.Calls()
	assert.Equal(t, "settle", calls[len(calls)-1].Op, "settles after a successful step")
}

func TestRunFallsBackToForcedStrategy(t *testing.T) {
	page := &steptest.FakePage{ForceOnly: []string{`"2"`, `/^\s*2\s*$/`}}
	ex := &step.Executor{}

	a, err := ex.Run(context.Background(), page, partySize("2"))
	require.NoError(t, err)
	assert.Equal(t, "forced", a.Strategy)
	assert.Equal(t, 2, a.Tried)
	require.Len(t, a.Causes, 1)
	assert.ErrorIs(t, a.Causes[0], step.ErrNotFound)
}

func TestRunRequiredStepFails(t *testing.T) {
	page := &steptest.FakePage{Absent: []string{"2"}}
	ex := &step.Executor{}

	a, err := ex.Run(context.Background(), page, partySize("2"))
	require.Error(t, err)
	assert.False(t, a.Found)
	assert.Equal(t, 2, a.Tried)
	assert.ErrorIs(t, err, step.ErrRequired)
	assert.ErrorIs(t, err, step.ErrNotFound)

	var se *step.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "party-size", se.Step)
	assert.Len(t, se.Causes, 2)
	assert.Contains(t, err.Error(), "party-size: exact:")

	for _, c := range page.Calls() {
		assert.NotEqual(t, "settle", c.Op, "no settle after a failed step")
	}
}

func TestRunOptionalStepAbsentIsNotAnError(t *testing.T) {
	page := &steptest.FakePage{Absent: []string{"cookie"}}
	ex := &step.Executor{}

	s := step.Step{
		Name:     "cookie-banner",
		Optional: true,
		Strategies: []step.Strategy{
			{Label: "accept", Match: step.TextPattern("", regexp.MustCompile(`(?i)cookie`))},
		},
	}
	a, err := ex.Run(context.Background(), page, s)
	require.NoError(t, err)
	assert.False(t, a.Found)
	assert.True(t, a.Optional)
	assert.Equal(t, 1, a.Tried)
}

func TestRunTimeouts(t *testing.T) {
	var got []time.Duration
	page := &steptest.FakePage{}
	rec := &timeoutPage{FakePage: page, seen: &got}
	ex := &step.Executor{OptionalTimeout: time.Second, RequiredTimeout: 7 * time.Second}

	_, _ = ex.Run(context.Background(), rec, step.Step{Name: "a", Optional: true, Strategies: []step.Strategy{{Match: step.CSS("x")}}})
	_, _ = ex.Run(context.Background(), rec, step.Step{Name: "b", Strategies: []step.Strategy{{Match: step.CSS("x")}}})
	_, _ = ex.Run(context.Background(), rec, step.Step{Name: "c", Timeout: 30 * time.Second, Strategies: []step.Strategy{{Match: step.CSS("x")}}})

	assert.Equal(t, []time.Duration{time.Second, 7 * time.Second, 30 * time.Second}, got)
}

type timeoutPage struct {
	*steptest.FakePage
	seen *[]time.Duration
}

func (p *timeoutPage) Click(ctx context.Context, m step.Match, opts step.Options) error {
	*p.seen = append(*p.seen, opts.Timeout)
	return p.FakePage.Click(ctx, m, opts)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &steptest.FakePage{}
	ex := &step.Executor{}

	a, err := ex.Run(ctx, page, partySize("3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.Tried)
	assert.Empty(t, page.Calls())
}

func TestRunPerformsEachAction(t *testing.T) {
	page := &steptest.FakePage{}
	ex := &step.Executor{}
	input := step.CSS("input[type=date]")

	for _, s := range []step.Strategy{
		{Label: "set", Match: input, Action: step.SetValue, Value: "2026-11-02"},
		{Label: "enter", Match: input, Action: step.Press, Value: "Enter"},
		{Label: "fill", Match: step.CSS("#Nome"), Action: step.Fill, Value: "Mario"},
		{Label: "time", Match: step.CSS("#OraPren"), Action: step.Select, Value: "20:00"},
		{Label: "form", Match: step.CSS("#Nome"), Action: step.WaitVisible},
		{Label: "sent", Match: step.CSS("#Nome"), Action: step.WaitHidden},
	} {
		_, err := ex.Run(context.Background(), page, step.Step{Name: s.Label, Strategies: []step.Strategy{s}})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"set css input[type=date] = 2026-11-02",
		"press css input[type=date] = Enter",
		"fill css #Nome = Mario",
		"select css #OraPren = 20:00",
		"wait css #Nome",
		"gone css #Nome",
	}, page.Ops())
}

func TestMatchString(t *testing.T) {
	assert.Equal(t, `text "2" in button, div`, step.ExactText("button, div", "2").String())
	assert.Equal(t, `pattern /(?i)^\s*no\s*$/ in td`, step.TextPattern("td", regexp.MustCompile(`(?i)^\s*no\s*$`)).String())
	assert.Equal(t, `role button "Oggi"`, step.Role("button", "Oggi").String())
	assert.Equal(t, "css .confDati", step.CSS(".confDati").String())
}
