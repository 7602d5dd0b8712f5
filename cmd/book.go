package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/centralino/internal/reservation"
)

func newBookCmd() *cobra.Command {
	var (
		req       reservation.BookingRequest
		date      string
		partySize string
		clock     string
		phone     string
		email     string
		submit    bool
		asJSON    bool
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Book a table (dry run unless --submit or DRY_RUN=0)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if req.Date, err = reservation.NormalizeDate(date, time.Now()); err != nil {
				return err
			}
			if req.PartySize, err = reservation.NormalizePartySize(partySize); err != nil {
				return err
			}
			if req.Time, err = reservation.NormalizeTime(clock); err != nil {
				return err
			}
			if req.Phone, err = reservation.NormalizePhone(phone, cfg.PhoneRegion); err != nil {
				return err
			}
			if req.Email, err = reservation.NormalizeEmail(email); err != nil {
				return err
			}
			req.Note = reservation.CleanNote(req.Note)
			if cmd.Flags().Changed("submit") {
				dry := !submit
				req.DryRun = &dry
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			repo, closeDB, err := openJournal(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer closeDB()

			launcher, err := startBrowser(cfg)
			if err != nil {
				return err
			}
			defer launcher.Stop()

			return printResult(newService(cfg, launcher, repo).Book(ctx, req), asJSON)
		},
	}

	f := c.Flags()
	f.StringVar(&date, "date", "", "date: YYYY-MM-DD, dd/mm/yyyy, oggi or domani")
	f.StringVar(&partySize, "party-size", "2", "number of guests (1..9)")
	f.StringVar(&clock, "time", "", "time slot HH:MM")
	f.StringVar(&req.CustomerName, "name", "", "customer full name")
	f.StringVar(&phone, "phone", "", "customer phone")
	f.StringVar(&email, "email", "", "customer email")
	f.StringVar(&req.Venue, "venue", "", "venue name or alias ("+strings.Join(reservation.Venues(), ", ")+")")
	f.StringVar(&req.Note, "note", "", "note for the restaurant")
	f.IntVar(&req.HighChairs, "high-chairs", 0, "number of high chairs (0..5)")
	f.StringVar(&req.Meal, "meal", "", "force PRANZO or CENA instead of inferring it from the time")
	f.StringVar(&req.Referer, "referer", "", "tracking referer (default DEFAULT_REFERER)")
	f.BoolVar(&submit, "submit", false, "actually press PRENOTA")
	f.BoolVar(&asJSON, "json", false, "print the full outcome as JSON")
	for _, name := range []string{"date", "time", "name", "phone", "email", "venue"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}
