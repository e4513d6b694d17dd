package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Reservation struct {
	ID          int64
	RequesterID string
	Username    string
	PlateNumber string
	Category    string
	SlotNumber  int
	Date        time.Time
	Status      ReservationStatus
	CreatedAt   time.Time
}

type NewReservation struct {
	RequesterID string
	Username    string
	PlateNumber string
	Category    string
	SlotNumber  int
	Date        string
}

// Accepted reservation date layouts, most specific first.
var reservationDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func ParseReservationDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range reservationDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("reservation date %q is not a valid date/time: %w", value, ErrInvalidInput)
}

type ReservationLedger struct {
	store ReservationStore
	slots *SlotRegistry
	now   func() time.Time
}

func NewReservationLedger(store ReservationStore, slots *SlotRegistry, now func() time.Time) *ReservationLedger {
	if now == nil {
		now = time.Now
	}
	return &ReservationLedger{store: store, slots: slots, now: now}
}

// Create records a booking intent. The target slot must exist, but its live
// occupancy is not consulted.
func (l *ReservationLedger) Create(ctx context.Context, req NewReservation) (Reservation, error) {
	if strings.TrimSpace(req.RequesterID) == "" {
		return Reservation{}, fmt.Errorf("requester is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(req.PlateNumber) == "" {
		return Reservation{}, fmt.Errorf("plate number is required: %w", ErrInvalidInput)
	}

	date, err := ParseReservationDate(req.Date)
	if err != nil {
		return Reservation{}, err
	}

	if _, err := l.slots.Get(ctx, req.SlotNumber); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, fmt.Errorf("reservation slot %d: %w", req.SlotNumber, ErrNotFound)
		}
		return Reservation{}, err
	}

	return l.store.InsertReservation(ctx, Reservation{
		RequesterID: req.RequesterID,
		Username:    req.Username,
		PlateNumber: req.PlateNumber,
		Category:    req.Category,
		SlotNumber:  req.SlotNumber,
		Date:        date,
		Status:      StatusPending,
		CreatedAt:   l.now().UTC(),
	})
}

// UpdateStatus accepts any of the four statuses regardless of the current
// one; there is no transition graph.
func (l *ReservationLedger) UpdateStatus(ctx context.Context, id int64, status ReservationStatus) (Reservation, error) {
	if !status.Valid() {
		return Reservation{}, fmt.Errorf("reservation status %q: %w", status, ErrInvalidInput)
	}
	return l.store.UpdateReservationStatus(ctx, id, status)
}

// ListAll returns every reservation, newest first.
func (l *ReservationLedger) ListAll(ctx context.Context) ([]Reservation, error) {
	return l.store.ListReservations(ctx)
}
