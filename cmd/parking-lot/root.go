package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/store/postgres"
	"parking-lot-billing/internal/telemetry"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parking-lot",
		Short:         "Parking lot occupancy and billing service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newShellCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())

	return root
}

// app holds the process-wide collaborators shared by serve and shell.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	lot       *parking.Lot
	closeFn   func()
}

func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	tp, err := telemetry.NewProvider(ctx, cfg.OTelServiceName, cfg.OTelEndpoint, cfg.Environment)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.OTelServiceName, cfg.Environment)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		shutdownTelemetry(tp)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		telemetry: tp,
		lot:       parking.NewLot(store, time.Now),
		closeFn:   closeStore,
	}, nil
}

func (a *app) instrumented() (*parking.InstrumentedLot, error) {
	return parking.NewInstrumentedLot(a.lot, a.telemetry.Tracer(), a.telemetry.Meter())
}

func (a *app) Close() {
	a.closeFn()
	shutdownTelemetry(a.telemetry)
}

func openStore(ctx context.Context, cfg *config.Config) (parking.Store, func(), error) {
	if !cfg.UsesDatabase() {
		logging.Info(ctx, "using in-memory store")
		return parking.NewMemoryStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, uint(cfg.DBConnectAttempts))
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logging.Info(ctx, "using postgres store")
	return postgres.NewStore(pool), pool.Close, nil
}

func shutdownTelemetry(tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		logging.Warn(ctx, "error shutting down telemetry", "error", err)
	}
}
