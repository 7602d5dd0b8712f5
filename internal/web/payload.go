package web

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/centralino/internal/reservation"
)

const maxBody = 64 << 10

// payload is a loosely keyed JSON object. Assistants send the same field under
// several names, so every lookup goes through pick.
type payload map[string]any

func decodePayload(r io.Reader) (payload, error) {
	var p payload
	dec := json.NewDecoder(io.LimitReader(r, maxBody))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: body is not a JSON object: %v", reservation.ErrInvalid, err)
	}
	return p, nil
}

// pick returns the first non-empty value among keys, rendered as text.
func (p payload) pick(keys ...string) string {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case bool:
			s = strconv.FormatBool(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (p payload) pickBool(keys ...string) (*bool, error) {
	s := p.pick(keys...)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", reservation.ErrInvalid, keys[0])
	}
	return &b, nil
}

func (p payload) pickInt(keys ...string) (int, error) {
	s := p.pick(keys...)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", reservation.ErrInvalid, keys[0])
	}
	return int(f), nil
}

var (
	dateKeys      = []string{"date", "data", "Data", "data_pren", "DataPren", "DataPren2"}
	partySizeKeys = []string{"party_size", "partySize", "persone", "Persone", "pax", "coperti", "Coperti"}
)

func (s *Server) availabilityRequest(p payload, now time.Time) (reservation.AvailabilityRequest, error) {
	date, err := reservation.NormalizeDate(p.pick(dateKeys...), now)
	if err != nil {
		return reservation.AvailabilityRequest{}, err
	}
	size, err := reservation.NormalizePartySize(p.pick(partySizeKeys...))
	if err != nil {
		return reservation.AvailabilityRequest{}, err
	}
	req := reservation.AvailabilityRequest{
		Date:      date,
		PartySize: size,
		RequestID: p.pick("request_id", "requestId"),
	}
	return req, req.Validate()
}

func (s *Server) bookingRequest(p payload, now time.Time) (reservation.BookingRequest, error) {
	var req reservation.BookingRequest
	var err error

	if req.Date, err = reservation.NormalizeDate(p.pick(dateKeys...), now); err != nil {
		return req, err
	}
	if req.PartySize, err = reservation.NormalizePartySize(p.pick(partySizeKeys...)); err != nil {
		return req, err
	}
	if req.Time, err = reservation.NormalizeTime(p.pick("time", "ora", "Ora", "orario", "OraPren", "OraPren2")); err != nil {
		return req, err
	}
	if req.Email, err = reservation.NormalizeEmail(p.pick("email", "Email", "mail")); err != nil {
		return req, err
	}
	if req.Phone, err = reservation.NormalizePhone(p.pick("phone", "telefono", "Telefono", "cell", "cellulare"), s.PhoneRegion); err != nil {
		return req, err
	}

	req.CustomerName = p.pick("name", "customer_name")
	if req.CustomerName == "" {
		first := p.pick("nome", "Nome", "first_name", "firstname")
		last := p.pick("cognome", "Cognome", "last_name", "lastname")
		req.CustomerName = strings.TrimSpace(first + " " + last)
	}
	req.Venue = p.pick("venue", "sede", "Sede", "ristorante", "Ristorante", "location")
	req.Note = reservation.CleanNote(p.pick("note", "nota", "Nota", "Note"))
	req.Meal = strings.ToUpper(p.pick("meal", "tipologia", "Tipologia", "pasto", "Pasto"))
	req.Referer = p.pick("referer", "fonte", "Fonte")
	req.RequestID = p.pick("request_id", "requestId")

	if req.HighChairs, err = p.pickInt("high_chairs", "seggiolini", "Seggiolini"); err != nil {
		return req, err
	}
	highChair, err := p.pickBool("high_chair", "seggiolone", "Seggiolone")
	if err != nil {
		return req, err
	}
	if highChair != nil && *highChair && req.HighChairs == 0 {
		req.HighChairs = 1
	}
	if req.DryRun, err = p.pickBool("dry_run", "dryRun"); err != nil {
		return req, err
	}
	switch req.Meal {
	case "", "PRANZO", "CENA", "LUNCH", "DINNER":
	default:
		return req, fmt.Errorf("%w: meal must be PRANZO or CENA", reservation.ErrInvalid)
	}

	return req, req.Validate()
}
