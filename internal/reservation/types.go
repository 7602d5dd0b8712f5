package reservation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid marks input that cannot be turned into a request.
var ErrInvalid = errors.New("invalid request")

// AvailabilityRequest asks whether the wizard accepts a party on a date.
type AvailabilityRequest struct {
	Date      string // YYYY-MM-DD
	PartySize string
	RequestID string
}

// BookingRequest carries everything the wizard asks for when reserving.
type BookingRequest struct {
	Date         string // YYYY-MM-DD
	PartySize    string
	Time         string // HH:MM
	CustomerName string
	Phone        string
	Email        string
	Venue        string
	Note         string

	HighChairs int
	Meal       string // optional PRANZO/CENA override
	Referer    string
	DryRun     *bool
	RequestID  string
}

func (r AvailabilityRequest) Validate() error {
	if r.Date == "" {
		return fmt.Errorf("%w: date required", ErrInvalid)
	}
	if err := validatePartySize(r.PartySize); err != nil {
		return err
	}
	return nil
}

func (r BookingRequest) Validate() error {
	if r.Date == "" {
		return fmt.Errorf("%w: date required", ErrInvalid)
	}
	if err := validatePartySize(r.PartySize); err != nil {
		return err
	}
	if r.Time == "" {
		return fmt.Errorf("%w: time required", ErrInvalid)
	}
	if len([]rune(r.CustomerName)) < 2 {
		return fmt.Errorf("%w: name too short", ErrInvalid)
	}
	if r.Phone == "" {
		return fmt.Errorf("%w: phone required", ErrInvalid)
	}
	if r.Email == "" {
		return fmt.Errorf("%w: email required", ErrInvalid)
	}
	if r.Venue == "" {
		return fmt.Errorf("%w: venue required", ErrInvalid)
	}
	if r.HighChairs < 0 || r.HighChairs > MaxHighChairs {
		return fmt.Errorf("%w: high_chairs must be 0..%d", ErrInvalid, MaxHighChairs)
	}
	return nil
}

const (
	MinPartySize  = 1
	MaxPartySize  = 9 // larger parties go through the phone line
	MaxHighChairs = 5
)

func validatePartySize(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: party_size %q is not a number", ErrInvalid, s)
	}
	if n < MinPartySize || n > MaxPartySize {
		return fmt.Errorf("%w: party_size must be %d..%d", ErrInvalid, MinPartySize, MaxPartySize)
	}
	return nil
}

// SplitName splits a spoken full name into first and last name.
// A single word yields an empty last name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
