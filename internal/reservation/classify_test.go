package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, loc)

	tests := []struct {
		in   string
		want DateBucket
	}{
		{"2026-10-19", Today},
		{" 2026-10-19 ", Today},
		{"2026-10-20", Tomorrow},
		{"2026-10-21", Other},
		{"2026-10-18", Other},
		{"2027-10-19", Other},
		{"not-a-date", Other},
		{"19/10/2026", Other},
		{"", Other},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyDate(tt.in, now), tt.in)
	}
}

func TestClassifyDateAcrossMonthAndYear(t *testing.T) {
	now := time.Date(2026, 12, 31, 8, 0, 0, 0, time.Local)
	assert.Equal(t, Today, ClassifyDate("2026-12-31", now))
	assert.Equal(t, Tomorrow, ClassifyDate("2027-01-01", now))
}

func TestClassifyDateUsesCurrentDay(t *testing.T) {
	now := time.Now()
	assert.Equal(t, Today, ClassifyDate(now.Format(DateLayout), now))
	assert.Equal(t, Tomorrow, ClassifyDate(now.AddDate(0, 0, 1).Format(DateLayout), now))
}

func TestClassifyMeal(t *testing.T) {
	tests := []struct {
		in   string
		want MealPeriod
	}{
		{"12:30", Lunch},
		{"00:00", Lunch},
		{"16:59", Lunch},
		{"17:00", Dinner},
		{"21:15", Dinner},
		{"bogus", Dinner},
		{"", Dinner},
		{"xx:30", Dinner},
		{"25:00", Dinner},
		{"1230", Dinner},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMeal(tt.in), tt.in)
	}
}

func TestMealForExplicitOverride(t *testing.T) {
	assert.Equal(t, Dinner, MealFor("12:30", "cena"))
	assert.Equal(t, Lunch, MealFor("20:00", " PRANZO "))
	assert.Equal(t, Lunch, MealFor("13:00", "brunch"))
	assert.Equal(t, "PRANZO", Lunch.Label())
	assert.Equal(t, "CENA", Dinner.Label())
}
