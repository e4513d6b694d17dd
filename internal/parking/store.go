package parking

import "context"

// SlotMutation runs with exclusive access to a single slot. Changes made to
// slot are persisted only when it returns nil.
type SlotMutation func(ctx context.Context, slot *Slot, log TransactionAppender) error

type SlotStore interface {
	InitSlots(ctx context.Context, count int) error
	GetSlot(ctx context.Context, number int) (Slot, error)
	ListSlots(ctx context.Context) ([]Slot, error)
	MutateSlot(ctx context.Context, number int, fn SlotMutation) error
}

type TransactionAppender interface {
	AppendTransaction(ctx context.Context, txn Transaction) (Transaction, error)
}

type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

type RateStore interface {
	GetRate(ctx context.Context, category string) (RateEntry, bool, error)
	PutRate(ctx context.Context, entry RateEntry) error
	ListRates(ctx context.Context) ([]RateEntry, error)
}

type ReservationStore interface {
	InsertReservation(ctx context.Context, r Reservation) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status ReservationStatus) (Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
}

type Store interface {
	SlotStore
	TransactionStore
	RateStore
	ReservationStore
}
