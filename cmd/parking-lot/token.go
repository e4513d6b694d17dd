package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/parking"
)

func newTokenCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "token <username> <role>",
		Short: "Mint a bearer token for local development",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if id == "" {
				id = args[0]
			}

			issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration, time.Now)
			token, expiresAt, err := issuer.Issue(parking.Caller{
				ID:       id,
				Username: args[0],
				Role:     parking.Role(args[1]),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "subject id to embed (defaults to the username)")
	return cmd
}
