package parking

import (
	"context"
	"time"
)

// Transaction is the immutable record of one completed occupancy cycle.
type Transaction struct {
	ID            int64
	PlateNumber   string
	Category      string
	SlotNumber    int
	CheckInTime   time.Time
	CheckOutTime  time.Time
	DurationHours float64
	Cost          float64
	CreatedAt     time.Time
}

type TransactionLog struct {
	store TransactionStore
}

func NewTransactionLog(store TransactionStore) *TransactionLog {
	return &TransactionLog{store: store}
}

// ListAll returns every transaction, newest first.
func (l *TransactionLog) ListAll(ctx context.Context) ([]Transaction, error) {
	return l.store.ListTransactions(ctx)
}
