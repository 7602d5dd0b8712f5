package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/centralino/internal/auth"
	"github.com/example/centralino/internal/booking"
	"github.com/example/centralino/internal/fidy"
	"github.com/example/centralino/internal/reservation"
)

type fakeFlows struct {
	mu       sync.Mutex
	checks   []reservation.AvailabilityRequest
	bookings []reservation.BookingRequest
	outcome  fidy.Outcome
}

func (f *fakeFlows) CheckAvailability(_ context.Context, req reservation.AvailabilityRequest) booking.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, req)
	return booking.Result{Outcome: f.outcome, RequestID: "rid-1"}
}

func (f *fakeFlows) Book(_ context.Context, req reservation.BookingRequest) booking.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, req)
	return booking.Result{Outcome: f.outcome, RequestID: "rid-2", DryRun: req.DryRun != nil && *req.DryRun}
}

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)

func newServer(f *fakeFlows) *Server {
	return &Server{
		Flows:          f,
		AllowedOrigins: []string{"*"},
		PhoneRegion:    "IT",
		Now:            func() time.Time { return now },
	}
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCheckAvailability(t *testing.T) {
	f := &fakeFlows{outcome: fidy.Outcome{Status: fidy.StatusOK, Success: "Seats available for 2 on 2026-10-19.", Reached: fidy.Done}}
	rec, resp := post(t, newServer(f).Routes(), "/check_availability", `{"date":"oggi","party_size":2}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Seats available for 2 on 2026-10-19.", resp.Result)
	assert.Equal(t, "rid-1", resp.RequestID)
	assert.Equal(t, "done", resp.Reached)
	require.Len(t, f.checks, 1)
	assert.Equal(t, reservation.AvailabilityRequest{Date: "2026-10-19", PartySize: "2"}, f.checks[0])
}

func TestFlowErrorsAreStill200(t *testing.T) {
	f := &fakeFlows{outcome: fidy.Outcome{Status: fidy.StatusError, Failure: `Error: required step "party-size" failed`}}
	rec, resp := post(t, newServer(f).Routes(), "/check_availability", `{"data":"2026-11-02","persone":"3"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.OK)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, `Error: required step "party-size" failed`, resp.Result)
}

func TestBookTableAcceptsAliasedKeys(t *testing.T) {
	f := &fakeFlows{outcome: fidy.Outcome{Status: fidy.StatusDryRun, Success: "Dry run", Venue: "Ostia Lido"}}
	body := `{
		"nome": "Mario", "cognome": "Rossi",
		"Email": " Mario@Example.com ",
		"cellulare": "333 123 4567",
		"pax": 4,
		"sede": "ostia",
		"DataPren": "02/11/2026",
		"orario": "20.30",
		"seggiolone": true,
		"Pasto": "cena",
		"nota": "  tavolo   fuori ",
		"fonte": "voice",
		"dryRun": "true",
		"requestId": "abc"
	}`
	rec, resp := post(t, newServer(f).Routes(), "/book_table", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dry_run", resp.Status)
	assert.True(t, resp.OK)
	assert.True(t, resp.DryRun)
	assert.Equal(t, "Ostia Lido", resp.Venue)

	require.Len(t, f.bookings, 1)
	got := f.bookings[0]
	assert.Equal(t, "Mario Rossi", got.CustomerName)
	assert.Equal(t, "mario@example.com", got.Email)
	assert.Equal(t, "+393331234567", got.Phone)
	assert.Equal(t, "4", got.PartySize)
	assert.Equal(t, "ostia", got.Venue)
	assert.Equal(t, "2026-11-02", got.Date)
	assert.Equal(t, "20:30", got.Time)
	assert.Equal(t, 1, got.HighChairs)
	assert.Equal(t, "CENA", got.Meal)
	assert.Equal(t, "tavolo fuori", got.Note)
	assert.Equal(t, "voice", got.Referer)
	assert.Equal(t, "abc", got.RequestID)
	require.NotNil(t, got.DryRun)
	assert.True(t, *got.DryRun)
}

func TestInvalidPayloads(t *testing.T) {
	h := newServer(&fakeFlows{}).Routes()
	valid := `"name":"Mario Rossi","phone":"3331234567","email":"m@example.com","venue":"appia","date":"domani","time":"20:00"`

	for _, tc := range []struct {
		name, path, body, want string
	}{
		{"not json", "/check_availability", `nope`, "not a JSON object"},
		{"missing date", "/check_availability", `{"party_size":2}`, "date required"},
		{"party too large", "/check_availability", `{"date":"oggi","party_size":12}`, "party_size must be 1..9"},
		{"bad time", "/book_table", `{` + valid + `,"party_size":2,"time":"dinner"}`, "not HH:MM"},
		{"bad phone", "/book_table", `{` + valid + `,"party_size":2,"phone":"12"}`, "phone"},
		{"bad email", "/book_table", `{` + valid + `,"party_size":2,"email":"nobody"}`, "email"},
		{"too many chairs", "/book_table", `{` + valid + `,"party_size":2,"seggiolini":6}`, "high_chairs"},
		{"bad meal", "/book_table", `{` + valid + `,"party_size":2,"meal":"brunch"}`, "meal"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := post(t, h, tc.path, tc.body)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, resp.OK)
			assert.Equal(t, statusInvalid, resp.Status)
			assert.Contains(t, resp.Result, tc.want)
			assert.True(t, strings.HasPrefix(resp.Result, "Error: invalid request"), resp.Result)
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newServer(&fakeFlows{}).Routes()
	for _, path := range []string{"/health", "/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHealthzReportsOpenSessions(t *testing.T) {
	s := newServer(&fakeFlows{})
	s.OpenSessions = func() int64 { return 3 }
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(3), body["open_sessions"])

	rec = httptest.NewRecorder()
	newServer(&fakeFlows{}).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotContains(t, rec.Body.String(), "open_sessions")
}

func TestRateLimit(t *testing.T) {
	f := &fakeFlows{outcome: fidy.Outcome{Status: fidy.StatusOK, Success: "ok"}}
	s := newServer(f)
	s.RateLimitPerMinute = 2
	h := s.Routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := post(t, h, "/check_availability", `{"date":"oggi","party_size":2}`)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, f.checks, 2)
}

func TestIPLimiterIsPerClient(t *testing.T) {
	l := newIPLimiter(1)
	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now))
	assert.True(t, l.allow("10.0.0.1", now.Add(time.Minute)))
}

func TestTokensGuardWebhooks(t *testing.T) {
	tokens := auth.NewTokens(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), 0)
	f := &fakeFlows{outcome: fidy.Outcome{Status: fidy.StatusOK, Success: "ok"}}
	var logs bytes.Buffer
	s := newServer(f)
	s.Tokens = tokens
	s.Logger = slog.New(slog.NewJSONHandler(&logs, nil))
	h := s.Routes()

	rec, _ := post(t, h, "/check_availability", `{"date":"oggi","party_size":2}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := tokens.Issue("voice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/check_availability", strings.NewReader(`{"date":"oggi","party_size":2}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), `"msg":"flow answered"`)
	assert.Contains(t, logs.String(), `"client":"voice"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")
}

func TestCORS(t *testing.T) {
	s := newServer(&fakeFlows{})
	s.AllowedOrigins = []string{"https://assistant.example"}
	h := s.Routes()

	req := httptest.NewRequest(http.MethodOptions, "/book_table", nil)
	req.Header.Set("Origin", "https://assistant.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://assistant.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/book_table", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
