package parking

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memSlot struct {
	mu   sync.Mutex
	slot Slot
}

// MemoryStore is an in-process Store. Each slot carries its own lock so
// mutations on different slots never contend.
type MemoryStore struct {
	slotsMu sync.RWMutex
	slots   map[int]*memSlot

	txnMu     sync.Mutex
	txns      []Transaction
	nextTxnID int64

	ratesMu sync.RWMutex
	rates   map[string]RateEntry

	resMu     sync.Mutex
	res       []Reservation
	nextResID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[int]*memSlot),
		rates: make(map[string]RateEntry),
	}
}

func (m *MemoryStore) InitSlots(_ context.Context, count int) error {
	m.slotsMu.Lock()
	defer m.slotsMu.Unlock()

	if len(m.slots) > 0 {
		return fmt.Errorf("slot registry holds %d slots: %w", len(m.slots), ErrAlreadyInitialized)
	}
	for i := 1; i <= count; i++ {
		m.slots[i] = &memSlot{slot: *NewSlot(i)}
	}
	return nil
}

func (m *MemoryStore) lookup(number int) (*memSlot, error) {
	m.slotsMu.RLock()
	defer m.slotsMu.RUnlock()

	ms, ok := m.slots[number]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", number, ErrNotFound)
	}
	return ms, nil
}

func (m *MemoryStore) GetSlot(_ context.Context, number int) (Slot, error) {
	ms, err := m.lookup(number)
	if err != nil {
		return Slot{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.slot.Clone(), nil
}

func (m *MemoryStore) ListSlots(_ context.Context) ([]Slot, error) {
	m.slotsMu.RLock()
	entries := make([]*memSlot, 0, len(m.slots))
	for _, ms := range m.slots {
		entries = append(entries, ms)
	}
	m.slotsMu.RUnlock()

	slots := make([]Slot, 0, len(entries))
	for _, ms := range entries {
		ms.mu.Lock()
		slots = append(slots, ms.slot.Clone())
		ms.mu.Unlock()
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Number < slots[j].Number
	})
	return slots, nil
}

func (m *MemoryStore) MutateSlot(ctx context.Context, number int, fn SlotMutation) error {
	ms, err := m.lookup(number)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	working := ms.slot.Clone()
	if err := fn(ctx, &working, m); err != nil {
		return err
	}
	ms.slot = working.Clone()
	return nil
}

func (m *MemoryStore) AppendTransaction(_ context.Context, txn Transaction) (Transaction, error) {
	m.txnMu.Lock()
	defer m.txnMu.Unlock()

	m.nextTxnID++
	txn.ID = m.nextTxnID
	m.txns = append(m.txns, txn)
	return txn, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context) ([]Transaction, error) {
	m.txnMu.Lock()
	defer m.txnMu.Unlock()

	out := make([]Transaction, 0, len(m.txns))
	for i := len(m.txns) - 1; i >= 0; i-- {
		out = append(out, m.txns[i])
	}
	return out, nil
}

func (m *MemoryStore) GetRate(_ context.Context, category string) (RateEntry, bool, error) {
	m.ratesMu.RLock()
	defer m.ratesMu.RUnlock()

	entry, ok := m.rates[category]
	return entry, ok, nil
}

func (m *MemoryStore) PutRate(_ context.Context, entry RateEntry) error {
	m.ratesMu.Lock()
	defer m.ratesMu.Unlock()

	m.rates[entry.Category] = entry
	return nil
}

func (m *MemoryStore) ListRates(_ context.Context) ([]RateEntry, error) {
	m.ratesMu.RLock()
	defer m.ratesMu.RUnlock()

	out := make([]RateEntry, 0, len(m.rates))
	for _, entry := range m.rates {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (m *MemoryStore) InsertReservation(_ context.Context, r Reservation) (Reservation, error) {
	m.resMu.Lock()
	defer m.resMu.Unlock()

	m.nextResID++
	r.ID = m.nextResID
	m.res = append(m.res, r)
	return r, nil
}

func (m *MemoryStore) UpdateReservationStatus(_ context.Context, id int64, status ReservationStatus) (Reservation, error) {
	m.resMu.Lock()
	defer m.resMu.Unlock()

	for i := range m.res {
		if m.res[i].ID == id {
			m.res[i].Status = status
			return m.res[i], nil
		}
	}
	return Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
}

func (m *MemoryStore) ListReservations(_ context.Context) ([]Reservation, error) {
	m.resMu.Lock()
	defer m.resMu.Unlock()

	out := make([]Reservation, 0, len(m.res))
	for i := len(m.res) - 1; i >= 0; i-- {
		out = append(out, m.res[i])
	}
	return out, nil
}
