package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/server"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := setup(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.lot.Bootstrap(ctx, cfg.SlotCount, parking.DefaultRates); err != nil {
				return err
			}

			lot, err := a.instrumented()
			if err != nil {
				return err
			}

			users, err := auth.NewDirectory(auth.DefaultSeeds(cfg.AdminPassword, cfg.UserPassword))
			if err != nil {
				return err
			}

			srv := server.NewServer(server.Options{
				Port:        cfg.Port,
				ServiceName: cfg.OTelServiceName,
				Lot:         lot,
				Users:       users,
				Issuer:      auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration, time.Now),
				Now:         time.Now,
			})

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- srv.Start()
			}()

			select {
			case err := <-serverErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
				logging.Info(context.Background(), "received shutdown signal")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port for the HTTP server (overrides APP_PORT)")
	return cmd
}
