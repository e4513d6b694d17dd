package parking

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Receipt is returned by a successful check-out.
type Receipt struct {
	Transaction Transaction
	RateFound   bool
}

func (r Receipt) DurationHours() float64 { return r.Transaction.DurationHours }

func (r Receipt) Cost() float64 { return r.Transaction.Cost }

// Engine owns every slot transition between Free and Occupied and is the
// only producer of transactions.
type Engine struct {
	slots SlotStore
	rates *RateTable
}

func NewEngine(slots SlotStore, rates *RateTable) *Engine {
	return &Engine{slots: slots, rates: rates}
}

func (e *Engine) CheckIn(ctx context.Context, slotNumber int, plateNumber, category string, now time.Time) (Slot, error) {
	if strings.TrimSpace(plateNumber) == "" {
		return Slot{}, fmt.Errorf("plate number is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(category) == "" {
		return Slot{}, fmt.Errorf("vehicle category is required: %w", ErrInvalidInput)
	}

	var result Slot
	err := e.slots.MutateSlot(ctx, slotNumber, func(ctx context.Context, slot *Slot, _ TransactionAppender) error {
		if slot.IsOccupied {
			return fmt.Errorf("slot %d is already occupied: %w", slotNumber, ErrConflict)
		}
		slot.Park(NewVehicle(plateNumber, category, now))
		result = slot.Clone()
		return nil
	})
	if err != nil {
		return Slot{}, err
	}
	return result, nil
}

func (e *Engine) CheckOut(ctx context.Context, slotNumber int, now time.Time) (Receipt, error) {
	var receipt Receipt
	err := e.slots.MutateSlot(ctx, slotNumber, func(ctx context.Context, slot *Slot, log TransactionAppender) error {
		if !slot.IsOccupied {
			return fmt.Errorf("slot %d is not occupied: %w", slotNumber, ErrConflict)
		}

		vehicle := slot.Vehicle
		duration := StayHours(vehicle.CheckInTime, now)

		rate, found, err := e.rates.Rate(ctx, vehicle.Category)
		if err != nil {
			return err
		}

		txn, err := log.AppendTransaction(ctx, Transaction{
			PlateNumber:   vehicle.PlateNumber,
			Category:      vehicle.Category,
			SlotNumber:    slot.Number,
			CheckInTime:   vehicle.CheckInTime,
			CheckOutTime:  now,
			DurationHours: duration,
			Cost:          duration * rate,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		slot.Leave()
		receipt = Receipt{Transaction: txn, RateFound: found}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// StayHours is the elapsed time between checkIn and checkOut in hours. A
// check-out that precedes the check-in is clamped to zero.
func StayHours(checkIn, checkOut time.Time) float64 {
	d := checkOut.Sub(checkIn)
	if d < 0 {
		return 0
	}
	return d.Hours()
}
