package reservation

import (
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type DateBucket int

const (
	Other DateBucket = iota
	Today
	Tomorrow
)

func (b DateBucket) String() string {
	switch b {
	case Today:
		return "today"
	case Tomorrow:
		return "tomorrow"
	default:
		return "other"
	}
}

type MealPeriod int

const (
	Dinner MealPeriod = iota
	Lunch
)

// LunchCutoffHour is the first hour served as dinner.
const LunchCutoffHour = 17

func (m MealPeriod) String() string {
	if m == Lunch {
		return "lunch"
	}
	return "dinner"
}

// Label is the tab caption the wizard uses for the meal service.
func (m MealPeriod) Label() string {
	if m == Lunch {
		return "PRANZO"
	}
	return "CENA"
}

// ClassifyDate buckets a YYYY-MM-DD date relative to now's calendar day in now's location.
// Unparseable input is Other.
func ClassifyDate(text string, now time.Time) DateBucket {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(text), now.Location())
	if err != nil {
		return Other
	}
	if sameDay(d, now) {
		return Today
	}
	if sameDay(d, now.AddDate(0, 0, 1)) {
		return Tomorrow
	}
	return Other
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ClassifyMeal reads the hour before ':' and defaults to Dinner on anything malformed.
func ClassifyMeal(text string) MealPeriod {
	hh, _, ok := strings.Cut(strings.TrimSpace(text), ":")
	if !ok {
		return Dinner
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Dinner
	}
	if h < LunchCutoffHour {
		return Lunch
	}
	return Dinner
}

// MealFor honours an explicit PRANZO/CENA choice before inferring from the time.
func MealFor(timeText, explicit string) MealPeriod {
	switch strings.ToUpper(strings.TrimSpace(explicit)) {
	case "PRANZO", "LUNCH":
		return Lunch
	case "CENA", "DINNER":
		return Dinner
	}
	return ClassifyMeal(timeText)
}
