package parking

import (
	"context"
	"fmt"
	"sort"
)

type SlotRegistry struct {
	store SlotStore
}

func NewSlotRegistry(store SlotStore) *SlotRegistry {
	return &SlotRegistry{store: store}
}

func (r *SlotRegistry) Initialize(ctx context.Context, count int) error {
	if count <= 0 {
		return fmt.Errorf("slot count %d must be positive: %w", count, ErrInvalidInput)
	}
	return r.store.InitSlots(ctx, count)
}

func (r *SlotRegistry) Get(ctx context.Context, number int) (Slot, error) {
	return r.store.GetSlot(ctx, number)
}

func (r *SlotRegistry) ListAll(ctx context.Context) ([]Slot, error) {
	slots, err := r.store.ListSlots(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Number < slots[j].Number
	})

	return slots, nil
}

func (r *SlotRegistry) FindByPlate(ctx context.Context, plateNumber string) (Slot, error) {
	slots, err := r.ListAll(ctx)
	if err != nil {
		return Slot{}, err
	}
	for _, slot := range slots {
		if slot.IsOccupied && slot.Vehicle.PlateNumber == plateNumber {
			return slot, nil
		}
	}
	return Slot{}, fmt.Errorf("vehicle %q: %w", plateNumber, ErrNotFound)
}

type Summary struct {
	Capacity  int
	Occupied  int
	Available int
}

func Summarize(slots []Slot) Summary {
	s := Summary{Capacity: len(slots)}
	for _, slot := range slots {
		if slot.IsOccupied {
			s.Occupied++
		}
	}
	s.Available = s.Capacity - s.Occupied
	return s
}

func (r *SlotRegistry) Summary(ctx context.Context) (Summary, error) {
	slots, err := r.store.ListSlots(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(slots), nil
}
