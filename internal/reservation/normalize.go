package reservation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

const MaxNoteLen = 300

var (
	emailRE     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneJunkRE = regexp.MustCompile(`[^\d+]`)
	spaceRE     = regexp.MustCompile(`\s+`)
	fourDigitRE = regexp.MustCompile(`^\d{4}$`)
	hhmmRE      = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

var dateLayouts = []string{DateLayout, "02/01/2006", "02-01-2006", "2/1/2006"}

// NormalizeDate accepts ISO dates, dd/mm/yyyy, dd-mm-yyyy and the words
// today/oggi and tomorrow/domani, returning YYYY-MM-DD.
func NormalizeDate(value string, now time.Time) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return "", fmt.Errorf("%w: date required", ErrInvalid)
	case "oggi", "today":
		return now.Format(DateLayout), nil
	case "domani", "tomorrow":
		return now.AddDate(0, 0, 1).Format(DateLayout), nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, v, now.Location()); err == nil {
			return d.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized date %q", ErrInvalid, value)
}

// NormalizeTime accepts 13:15, 13.15, 1315 and 9:30, returning zero-padded HH:MM.
func NormalizeTime(value string) (string, error) {
	v := strings.ReplaceAll(strings.TrimSpace(value), ".", ":")
	if v == "" {
		return "", fmt.Errorf("%w: time required", ErrInvalid)
	}
	if fourDigitRE.MatchString(v) {
		v = v[:2] + ":" + v[2:]
	}
	if !hhmmRE.MatchString(v) {
		return "", fmt.Errorf("%w: time %q is not HH:MM", ErrInvalid, value)
	}
	hh, mm, _ := strings.Cut(v, ":")
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return "", fmt.Errorf("%w: time %q out of range", ErrInvalid, value)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func NormalizeEmail(value string) (string, error) {
	v := strings.TrimSpace(value)
	if !emailRE.MatchString(v) {
		return "", fmt.Errorf("%w: email %q", ErrInvalid, value)
	}
	return strings.ToLower(v), nil
}

// NormalizePhone validates a phone number for region and returns it in E.164.
func NormalizePhone(value, region string) (string, error) {
	raw := phoneJunkRE.ReplaceAllString(strings.TrimSpace(value), "")
	if raw == "" {
		return "", fmt.Errorf("%w: phone required", ErrInvalid)
	}
	if strings.HasPrefix(raw, "00") {
		raw = "+" + raw[2:]
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: phone %q: %v", ErrInvalid, value, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: phone %q is not a valid number", ErrInvalid, value)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// FormPhone turns an E.164 number into what the wizard's phone field accepts:
// at most 10 national digits.
func FormPhone(e164 string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, e164)
	if len(digits) >= 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) < 8 {
		return "", fmt.Errorf("%w: phone too short for the form", ErrInvalid)
	}
	return digits, nil
}

// CleanNote collapses whitespace and caps the note length.
func CleanNote(note string) string {
	n := spaceRE.ReplaceAllString(strings.TrimSpace(note), " ")
	if utf8.RuneCountInString(n) > MaxNoteLen {
		n = string([]rune(n)[:MaxNoteLen])
	}
	return n
}

// NormalizePartySize accepts a number in text or numeric form.
func NormalizePartySize(value string) (string, error) {
	v := strings.TrimSpace(value)
	if err := validatePartySize(v); err != nil {
		return "", err
	}
	n, _ := strconv.Atoi(v)
	return strconv.Itoa(n), nil
}
