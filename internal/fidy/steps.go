package fidy

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/example/centralino/internal/step"
)

// Every selector the wizard depends on lives here so site changes stay local.

const clickable = "button, a, div, span, td, li"

var (
	consentRE   = regexp.MustCompile(`(?i)^\s*(accetta|accetto|accetta tutti|acconsento|consenti|accept|accept all|ok|ho capito)\s*$`)
	noRE        = regexp.MustCompile(`(?i)^\s*no\s*$`)
	yesRE       = regexp.MustCompile(`(?i)^\s*s[iì]\s*$`)
	todayRE     = regexp.MustCompile(`(?i)^\s*(oggi|today)\s*$`)
	tomorrowRE  = regexp.MustCompile(`(?i)^\s*(domani|tomorrow)\s*$`)
	otherDateRE = regexp.MustCompile(`(?i)^\s*(altra data|altro giorno|scegli (una )?data|other date)\s*$`)
	searchRE    = regexp.MustCompile(`(?i)^\s*(cerca|conferma|verifica|search|confirm)\s*$`)
	continueRE  = regexp.MustCompile(`(?i)^\s*(conferma( dati)?|continua|avanti)\s*$`)
	submitRE    = regexp.MustCompile(`(?i)^\s*prenota\s*$`)
)

func wholeText(text string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(text) + `\s*$`)
}

func click(label string, m step.Match) step.Strategy {
	return step.Strategy{Label: label, Match: m, Action: step.Click}
}

func forceClick(label string, m step.Match) step.Strategy {
	return step.Strategy{Label: label, Match: m, Action: step.Click, Force: true}
}

func fill(label string, m step.Match, value string) step.Strategy {
	return step.Strategy{Label: label, Match: m, Action: step.Fill, Value: value}
}

func cookieStep() step.Step {
	return step.Step{
		Name:     "cookie-consent",
		Optional: true,
		Strategies: []step.Strategy{
			click("consent-button", step.TextPattern("button, a", consentRE)),
			click("consent-role", step.Role("button", "accetta")),
			forceClick("consent-any", step.TextPattern(clickable, consentRE)),
		},
	}
}

func partySizeStep(n string) step.Step {
	return step.Step{
		Name: "party-size",
		Strategies: []step.Strategy{
			click("exact-text", step.ExactText("button, div", n)),
			click("rel", step.CSS(fmt.Sprintf(`.nCoperti[rel="%s"]`, n))),
			forceClick("forced-text", step.TextPattern(clickable, wholeText(n))),
		},
	}
}

// highchairSteps declines the highchair prompt, or accepts it and picks a count.
func highchairSteps(count int) []step.Step {
	if count <= 0 {
		return []step.Step{{
			Name:     "highchair-no",
			Optional: true,
			Strategies: []step.Strategy{
				click("no-cell", step.TextPattern("td", noRE)),
				forceClick("no-cell-forced", step.TextPattern("td", noRE)),
			},
		}}
	}
	n := strconv.Itoa(count)
	return []step.Step{
		{
			Name: "highchair-yes",
			Strategies: []step.Strategy{
				click("toggle", step.CSS(".seggioliniTxt")),
				click("yes-cell", step.TextPattern("td", yesRE)),
				forceClick("yes-forced", step.TextPattern(clickable, yesRE)),
			},
		},
		{
			Name: "highchair-count",
			Strategies: []step.Strategy{
				click("rel", step.CSS(fmt.Sprintf(`.nSeggiolini[rel="%s"]`, n))),
				forceClick("forced-text", step.TextPattern(".nSeggiolini", wholeText(n))),
			},
		},
	}
}

// dateButton is the wizard's own button for an ISO day, rendered only for the days it offers.
func dateButton(iso string) step.Match {
	return step.CSS(fmt.Sprintf(`.dataBtn[rel="%s"]`, iso))
}

// quickDateStep picks today or tomorrow. When the day's button is known to be
// rendered it goes first; otherwise the quick-select label leads.
func quickDateStep(name string, re *regexp.Regexp, iso string, buttonShown bool) step.Step {
	label := click("quick-select", step.TextPattern(clickable, re))
	rel := click("rel", dateButton(iso))
	first, second := label, rel
	if buttonShown {
		first, second = rel, label
	}
	return step.Step{
		Name: name,
		Strategies: []step.Strategy{
			first,
			second,
			forceClick("forced", step.TextPattern(clickable, re)),
		},
	}
}

var dateInputs = []step.Match{step.CSS(`input[type="date"]`), step.CSS("#DataPren")}

// otherDateSteps opens the date picker, types the date and commits it.
func otherDateSteps(iso string) []step.Step {
	set := step.Step{Name: "date-input"}
	enter := step.Step{Name: "date-commit"}
	for i, m := range dateInputs {
		label := fmt.Sprintf("input-%d", i+1)
		set.Strategies = append(set.Strategies, step.Strategy{Label: label, Match: m, Action: step.SetValue, Value: iso})
		enter.Strategies = append(enter.Strategies, step.Strategy{Label: label, Match: m, Action: step.Press, Value: "Enter"})
	}
	return []step.Step{
		{
			Name:     "date-other",
			Optional: true,
			Strategies: []step.Strategy{
				click("other-date", step.TextPattern(clickable, otherDateRE)),
				forceClick("other-date-forced", step.TextPattern(clickable, otherDateRE)),
			},
		},
		set,
		enter,
	}
}

func dateConfirmStep() step.Step {
	return step.Step{
		Name:     "date-confirm",
		Optional: true,
		Strategies: []step.Strategy{
			click("search", step.TextPattern("button, a, input", searchRE)),
		},
	}
}

func mealStep(label string) step.Step {
	return step.Step{
		Name: "meal",
		Strategies: []step.Strategy{
			click("rel", step.CSS(fmt.Sprintf(`.tipoBtn[rel="%s"]`, label))),
			click("tab-text", step.TextPattern(clickable, wholeText(label))),
			forceClick("forced", step.TextPattern(clickable, wholeText(label))),
		},
	}
}

func venueStep(venue string) step.Step {
	return step.Step{
		Name: "venue",
		Strategies: []step.Strategy{
			click("list-exact", step.ExactText(".ristoCont *", venue)),
			click("page-exact", step.TextPattern(clickable, wholeText(venue))),
			click("list-contains", step.TextPattern(".ristoCont *", regexp.MustCompile(`(?i)`+regexp.QuoteMeta(venue)))),
			forceClick("forced", step.TextPattern(clickable, wholeText(venue))),
		},
	}
}

func timeStep(hhmm string) step.Step {
	return step.Step{
		Name: "time",
		Strategies: []step.Strategy{
			{Label: "time-select", Match: step.CSS("#OraPren"), Action: step.Select, Value: hhmm},
			{Label: "any-select", Match: step.CSS("select"), Action: step.Select, Value: hhmm},
			click("slot-text", step.TextPattern(clickable, wholeText(hhmm))),
		},
	}
}

func noteStep(note string) step.Step {
	return step.Step{
		Name:     "note",
		Optional: true,
		Strategies: []step.Strategy{
			fill("note-id", step.CSS("#Nota"), note),
			fill("textarea", step.CSS("textarea"), note),
		},
	}
}

func confirmDetailsStep() step.Step {
	return step.Step{
		Name: "confirm-details",
		Strategies: []step.Strategy{
			click("conf-dati", step.CSS(".confDati")),
			click("continue-text", step.TextPattern("button, a, input, div", continueRE)),
		},
	}
}

func contactFormStep() step.Step {
	return step.Step{
		Name: "contact-form",
		Strategies: []step.Strategy{
			{Label: "name-field", Match: step.CSS("#Nome"), Action: step.WaitVisible},
		},
	}
}

func fieldStep(name, id, fallback, value string) step.Step {
	return step.Step{
		Name: name,
		Strategies: []step.Strategy{
			fill("id", step.CSS(id), value),
			fill("fallback", step.CSS(fallback), value),
		},
	}
}

func contactSteps(first, last, email, phone string) []step.Step {
	return []step.Step{
		fieldStep("first-name", "#Nome", `input[name="Nome"]`, first),
		fieldStep("last-name", "#Cognome", `input[name="Cognome"]`, last),
		fieldStep("email", "#Email", `input[type="email"]`, email),
		fieldStep("phone", "#Telefono", `input[type="tel"]`, phone),
	}
}

func submitStep() step.Step {
	return step.Step{
		Name: "submit",
		Strategies: []step.Strategy{
			click("submit-input", step.CSS(`input[type="submit"][value="PRENOTA"]`)),
			click("submit-role", step.Role("button", "prenota")),
			click("submit-text", step.TextPattern("button, a", submitRE)),
			forceClick("submit-forced", step.CSS(`input[type="submit"]`)),
		},
	}
}

// submittedStep waits for the contact form to be replaced by the result page.
func submittedStep(timeout time.Duration) step.Step {
	return step.Step{
		Name:    "submitted",
		Timeout: timeout,
		Strategies: []step.Strategy{
			{Label: "form-gone", Match: step.CSS("#Nome"), Action: step.WaitHidden},
		},
	}
}
