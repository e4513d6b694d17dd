package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/parking"
)

func newShellCmd() *cobra.Command {
	var capacity int

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive operator shell on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := setup(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if capacity > 0 {
				err = a.lot.Bootstrap(ctx, capacity, parking.DefaultRates)
			} else {
				err = a.lot.Rates.Seed(ctx, parking.DefaultRates)
			}
			if err != nil {
				return err
			}

			lot, err := a.instrumented()
			if err != nil {
				return err
			}

			shell := parking.NewInstrumentedShell(lot, a.telemetry.Tracer(), cmd.InOrStdin(), cmd.OutOrStdout(), time.Now)
			shell.Run(ctx)
			return nil
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "create this many slots before reading commands")
	return cmd
}
