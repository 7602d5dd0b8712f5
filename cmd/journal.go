package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded flow runs",
	}
	cmd.AddCommand(newJournalListCmd())
	return cmd
}

func newJournalListCmd() *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "list",
		Short: "List recent flow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.JournalEnabled() {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			ctx := context.Background()
			repo, closeDB, err := openJournal(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := repo.ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tFLOW\tSTATUS\tREACHED\tDATE\tPAX\tVENUE\tTOOK\tMESSAGE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.Flow, e.Status, e.Reached, e.Date,
					e.PartySize, e.Venue, e.Duration.Round(100*time.Millisecond), e.Message)
			}
			return tw.Flush()
		},
	}

	c.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return c
}
