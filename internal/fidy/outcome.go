package fidy

import (
	"fmt"

	"github.com/example/centralino/internal/step"
)

// State is a point in the wizard the flow has reached.
type State int

const (
	Start State = iota
	Navigated
	CookieHandled
	PartySizeSelected
	HighchairHandled
	DateBranchSelected
	DateConfirmed
	MealSelected
	VenueSelected
	TimeSelected
	DetailsConfirmed
	ContactFilled
	Submitted
	Done
)

var stateNames = [...]string{
	Start:              "start",
	Navigated:          "navigated",
	CookieHandled:      "cookie_handled",
	PartySizeSelected:  "party_size_selected",
	HighchairHandled:   "highchair_handled",
	DateBranchSelected: "date_branch_selected",
	DateConfirmed:      "date_confirmed",
	MealSelected:       "meal_selected",
	VenueSelected:      "venue_selected",
	TimeSelected:       "time_selected",
	DetailsConfirmed:   "details_confirmed",
	ContactFilled:      "contact_filled",
	Submitted:          "submitted",
	Done:               "done",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Status string

const (
	StatusOK     Status = "ok"
	StatusDryRun Status = "dry_run"
	StatusError  Status = "error"
)

// Outcome is the terminal result of a flow. Exactly one of Success and
// Failure is set.
type Outcome struct {
	Status  Status `json:"status"`
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	// Reached is the last state entered before the flow finished.
	Reached  State          `json:"reached"`
	Venue    string         `json:"venue,omitempty"`
	Meal     string         `json:"meal,omitempty"`
	Attempts []step.Attempt `json:"attempts,omitempty"`
	Err      error          `json:"-"`
}

func (o Outcome) OK() bool { return o.Status != StatusError }

// Text is the single human-readable message for callers that only read text.
func (o Outcome) Text() string {
	if o.OK() {
		return o.Success
	}
	return o.Failure
}

// Failed builds an error outcome outside a flow run, e.g. when no session could be opened.
func Failed(err error) Outcome {
	return Outcome{Status: StatusError, Failure: "Error: " + err.Error(), Err: err}
}
