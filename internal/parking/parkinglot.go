package parking

import (
	"context"
	"errors"
	"time"
)

// Lot wires the parking components over a single Store.
type Lot struct {
	Slots        *SlotRegistry
	Rates        *RateTable
	Engine       *Engine
	Reservations *ReservationLedger
	Transactions *TransactionLog
}

func NewLot(store Store, now func() time.Time) *Lot {
	slots := NewSlotRegistry(store)
	rates := NewRateTable(store)

	return &Lot{
		Slots:        slots,
		Rates:        rates,
		Engine:       NewEngine(store, rates),
		Reservations: NewReservationLedger(store, slots, now),
		Transactions: NewTransactionLog(store),
	}
}

// Bootstrap creates capacity slots and seeds default rates. A registry that
// already holds slots is left as it is.
func (l *Lot) Bootstrap(ctx context.Context, capacity int, rates []RateEntry) error {
	if err := l.Slots.Initialize(ctx, capacity); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
		return err
	}
	return l.Rates.Seed(ctx, rates)
}
