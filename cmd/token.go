package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/centralino/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage client tokens for the webhooks",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		client string
		ttl    time.Duration
	)

	c := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token for a calling assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.TokensEnabled() {
				return fmt.Errorf("TOKEN_HASH_KEY and TOKEN_BLOCK_KEY are not set; run `centralino keys` first")
			}
			tok, err := auth.NewTokens(cfg.TokenHashKey, cfg.TokenBlockKey, ttl).Issue(client)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	c.Flags().StringVar(&client, "client", "", "client name recorded in the token")
	c.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "how long the server accepts the token")
	_ = c.MarkFlagRequired("client")
	return c
}
