package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"parking-lot-billing/internal/parking"
)

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements parking.Store on PostgreSQL. Slot mutations hold a row
// lock for the whole callback, and transactions appended during a
// check-out commit atomically with the slot update.
type Store struct {
	pool *pgxpool.Pool
}

var _ parking.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const slotColumns = `slot_number, is_occupied, plate_number, vehicle_category, check_in_time`

func scanSlot(row pgx.Row) (parking.Slot, error) {
	var (
		slot     parking.Slot
		plate    *string
		category *string
		checkIn  *time.Time
	)
	if err := row.Scan(&slot.Number, &slot.IsOccupied, &plate, &category, &checkIn); err != nil {
		return parking.Slot{}, err
	}
	if slot.IsOccupied && plate != nil {
		v := &parking.Vehicle{PlateNumber: *plate}
		if category != nil {
			v.Category = *category
		}
		if checkIn != nil {
			v.CheckInTime = checkIn.UTC()
		}
		slot.Vehicle = v
	}
	return slot, nil
}

func (s *Store) InitSlots(ctx context.Context, count int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE parking_slots IN EXCLUSIVE MODE`); err != nil {
		return err
	}

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM parking_slots`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("slot registry holds %d slots: %w", existing, parking.ErrAlreadyInitialized)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO parking_slots (slot_number) SELECT generate_series(1, $1)`, count); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetSlot(ctx context.Context, number int) (parking.Slot, error) {
	slot, err := scanSlot(s.pool.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE slot_number = $1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return parking.Slot{}, fmt.Errorf("slot %d: %w", number, parking.ErrNotFound)
	}
	return slot, err
}

func (s *Store) ListSlots(ctx context.Context) ([]parking.Slot, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+slotColumns+` FROM parking_slots ORDER BY slot_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []parking.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) MutateSlot(ctx context.Context, number int, fn parking.SlotMutation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	slot, err := scanSlot(tx.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE slot_number = $1 FOR UPDATE`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("slot %d: %w", number, parking.ErrNotFound)
	}
	if err != nil {
		return err
	}

	working := slot.Clone()
	if err := fn(ctx, &working, txAppender{tx: tx}); err != nil {
		return err
	}

	var (
		plate    *string
		category *string
		checkIn  *time.Time
	)
	if working.IsOccupied && working.Vehicle != nil {
		plate = &working.Vehicle.PlateNumber
		category = &working.Vehicle.Category
		checkIn = &working.Vehicle.CheckInTime
	}
	if _, err := tx.Exec(ctx,
		`UPDATE parking_slots
		 SET is_occupied = $2, plate_number = $3, vehicle_category = $4, check_in_time = $5
		 WHERE slot_number = $1`,
		number, working.IsOccupied, plate, category, checkIn); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type txAppender struct {
	tx pgx.Tx
}

func (a txAppender) AppendTransaction(ctx context.Context, txn parking.Transaction) (parking.Transaction, error) {
	err := a.tx.QueryRow(ctx,
		`INSERT INTO transactions
		 (plate_number, vehicle_category, slot_number, check_in_time, check_out_time, duration_hours, cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		txn.PlateNumber, txn.Category, txn.SlotNumber, txn.CheckInTime, txn.CheckOutTime,
		txn.DurationHours, txn.Cost, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return parking.Transaction{}, err
	}
	return txn, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]parking.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, plate_number, vehicle_category, slot_number, check_in_time, check_out_time,
		        duration_hours, cost, created_at
		 FROM transactions ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []parking.Transaction
	for rows.Next() {
		var t parking.Transaction
		if err := rows.Scan(&t.ID, &t.PlateNumber, &t.Category, &t.SlotNumber, &t.CheckInTime,
			&t.CheckOutTime, &t.DurationHours, &t.Cost, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CheckInTime = t.CheckInTime.UTC()
		t.CheckOutTime = t.CheckOutTime.UTC()
		t.CreatedAt = t.CreatedAt.UTC()
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) GetRate(ctx context.Context, category string) (parking.RateEntry, bool, error) {
	entry := parking.RateEntry{Category: category}
	err := s.pool.QueryRow(ctx,
		`SELECT hourly_rate FROM pricing_rates WHERE vehicle_category = $1`, category).Scan(&entry.HourlyRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return parking.RateEntry{}, false, nil
	}
	if err != nil {
		return parking.RateEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) PutRate(ctx context.Context, entry parking.RateEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pricing_rates (vehicle_category, hourly_rate, updated_at)
		 VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (vehicle_category)
		 DO UPDATE SET hourly_rate = EXCLUDED.hourly_rate, updated_at = EXCLUDED.updated_at`,
		entry.Category, entry.HourlyRate)
	return err
}

func (s *Store) ListRates(ctx context.Context) ([]parking.RateEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT vehicle_category, hourly_rate FROM pricing_rates ORDER BY vehicle_category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []parking.RateEntry
	for rows.Next() {
		var r parking.RateEntry
		if err := rows.Scan(&r.Category, &r.HourlyRate); err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

const reservationColumns = `id, requester_id, username, plate_number, vehicle_category, slot_number,
	reservation_date, status, created_at`

func scanReservation(row pgx.Row) (parking.Reservation, error) {
	var (
		r      parking.Reservation
		status string
	)
	if err := row.Scan(&r.ID, &r.RequesterID, &r.Username, &r.PlateNumber, &r.Category, &r.SlotNumber,
		&r.Date, &status, &r.CreatedAt); err != nil {
		return parking.Reservation{}, err
	}
	r.Status = parking.ReservationStatus(status)
	r.Date = r.Date.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func (s *Store) InsertReservation(ctx context.Context, r parking.Reservation) (parking.Reservation, error) {
	return scanReservation(s.pool.QueryRow(ctx,
		`INSERT INTO reservations
		 (requester_id, username, plate_number, vehicle_category, slot_number, reservation_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+reservationColumns,
		r.RequesterID, r.Username, r.PlateNumber, r.Category, r.SlotNumber, r.Date, string(r.Status), r.CreatedAt))
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id int64, status parking.ReservationStatus) (parking.Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx,
		`UPDATE reservations SET status = $2 WHERE id = $1 RETURNING `+reservationColumns,
		id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return parking.Reservation{}, fmt.Errorf("reservation %d: %w", id, parking.ErrNotFound)
	}
	return r, err
}

func (s *Store) ListReservations(ctx context.Context) ([]parking.Reservation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []parking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
