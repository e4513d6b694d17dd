package postgres

import (
	"context"
	"fmt"

	"parking-lot-billing/internal/logging"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS parking_slots (
		slot_number INTEGER PRIMARY KEY,
		is_occupied BOOLEAN NOT NULL DEFAULT FALSE,
		plate_number VARCHAR(32),
		vehicle_category VARCHAR(64),
		check_in_time TIMESTAMP WITH TIME ZONE,
		CHECK (is_occupied = (plate_number IS NOT NULL))
	)`,

	`CREATE TABLE IF NOT EXISTS pricing_rates (
		vehicle_category VARCHAR(64) PRIMARY KEY,
		hourly_rate DOUBLE PRECISION NOT NULL CHECK (hourly_rate >= 0),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		plate_number VARCHAR(32) NOT NULL,
		vehicle_category VARCHAR(64) NOT NULL,
		slot_number INTEGER NOT NULL REFERENCES parking_slots(slot_number),
		check_in_time TIMESTAMP WITH TIME ZONE NOT NULL,
		check_out_time TIMESTAMP WITH TIME ZONE NOT NULL,
		duration_hours DOUBLE PRECISION NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_plate_number ON transactions(plate_number)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		requester_id VARCHAR(64) NOT NULL,
		username VARCHAR(255) NOT NULL DEFAULT '',
		plate_number VARCHAR(32) NOT NULL,
		vehicle_category VARCHAR(64) NOT NULL DEFAULT '',
		slot_number INTEGER NOT NULL REFERENCES parking_slots(slot_number),
		reservation_date TIMESTAMP WITH TIME ZONE NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_slot_number ON reservations(slot_number)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db Querier) error {
	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			logging.Error(ctx, "migration failed", "index", i, "error", err)
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logging.Info(ctx, "migrations completed", "count", len(migrations))
	return nil
}
