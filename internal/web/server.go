// Package web is the webhook surface the assistants call.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/centralino/internal/auth"
	"github.com/example/centralino/internal/booking"
	"github.com/example/centralino/internal/metrics"
	"github.com/example/centralino/internal/reservation"
)

// Flows runs the reservation flows for a request.
type Flows interface {
	CheckAvailability(ctx context.Context, req reservation.AvailabilityRequest) booking.Result
	Book(ctx context.Context, req reservation.BookingRequest) booking.Result
}

type Server struct {
	Flows Flows
	// Tokens, when set, guards the webhook routes.
	Tokens             *auth.Tokens
	AllowedOrigins     []string
	RateLimitPerMinute int
	PhoneRegion        string
	// OpenSessions, when set, is reported by /healthz.
	OpenSessions func() int64
	Now          func() time.Time
	Logger       *slog.Logger
}

// response keeps the single text field older callers read and adds a
// machine-readable status beside it.
type response struct {
	Result    string `json:"result"`
	OK        bool   `json:"ok"`
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Reached   string `json:"reached,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Meal      string `json:"meal,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

const statusInvalid = "invalid_request"

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(cors(s.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"ok": true}
		if s.OpenSessions != nil {
			body["open_sessions"] = s.OpenSessions()
		}
		writeJSON(w, http.StatusOK, body)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.RateLimitPerMinute > 0 {
			r.Use(newIPLimiter(s.RateLimitPerMinute).middleware)
		}
		if s.Tokens != nil {
			r.Use(s.Tokens.RequireToken)
		}
		r.Post("/check_availability", s.handleCheckAvailability)
		r.Post("/book_table", s.handleBookTable)
	})

	return r
}

func (s *Server) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	p, err := decodePayload(r.Body)
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	req, err := s.availabilityRequest(p, s.now())
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	s.reply(w, r, s.Flows.CheckAvailability(r.Context(), req))
}

func (s *Server) handleBookTable(w http.ResponseWriter, r *http.Request) {
	p, err := decodePayload(r.Body)
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	req, err := s.bookingRequest(p, s.now())
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	s.reply(w, r, s.Flows.Book(r.Context(), req))
}

// reply always answers 200: the outcome travels in the body.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, res booking.Result) {
	attrs := []any{
		"path", r.URL.Path,
		"request_id", res.RequestID,
		"status", string(res.Status),
		"reached", res.Reached.String(),
	}
	if client, ok := auth.ClientFromContext(r.Context()); ok {
		attrs = append(attrs, "client", client)
	}
	s.logger().Info("flow answered", attrs...)
	writeJSON(w, http.StatusOK, response{
		Result:    res.Text(),
		OK:        res.OK(),
		Status:    string(res.Status),
		RequestID: res.RequestID,
		Reached:   res.Reached.String(),
		Venue:     res.Venue,
		Meal:      res.Meal,
		DryRun:    res.DryRun,
	})
}

func (s *Server) invalid(w http.ResponseWriter, r *http.Request, err error) {
	s.logger().Info("invalid request", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	msg := err.Error()
	if !errors.Is(err, reservation.ErrInvalid) {
		msg = reservation.ErrInvalid.Error() + ": " + msg
	}
	writeJSON(w, http.StatusOK, response{
		Result: "Error: " + msg,
		Status: statusInvalid,
	})
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start serves h on addr until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}
	}()
	slog.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
