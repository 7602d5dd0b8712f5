package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/centralino/internal/booking"
	"github.com/example/centralino/internal/reservation"
)

func newCheckCmd() *cobra.Command {
	var (
		date      string
		partySize string
		asJSON    bool
	)

	c := &cobra.Command{
		Use:   "check",
		Short: "Run one availability check against the live wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := reservation.NormalizeDate(date, time.Now())
			if err != nil {
				return err
			}
			n, err := reservation.NormalizePartySize(partySize)
			if err != nil {
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

			res := newService(cfg, launcher, repo).CheckAvailability(ctx, reservation.AvailabilityRequest{Date: d, PartySize: n})
			return printResult(res, asJSON)
		},
	}

	c.Flags().StringVar(&date, "date", "oggi", "date: YYYY-MM-DD, dd/mm/yyyy, oggi or domani")
	c.Flags().StringVar(&partySize, "party-size", "2", "number of guests (1..9)")
	c.Flags().BoolVar(&asJSON, "json", false, "print the full outcome as JSON")
	return c
}

func printResult(res booking.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Printf("[%s] %s (request %s, reached %s)\n", res.Status, res.Text(), res.RequestID, res.Reached)
	}
	if !res.OK() {
		return fmt.Errorf("flow ended in %s", res.Reached)
	}
	return nil
}
