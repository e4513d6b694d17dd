package parking

import (
	"context"
	"fmt"
	"math"
	"strings"
)

type RateEntry struct {
	Category   string
	HourlyRate float64
}

// DefaultRates are seeded into an empty rate table at bootstrap.
var DefaultRates = []RateEntry{
	{Category: "motorcycle", HourlyRate: 20},
	{Category: "car", HourlyRate: 50},
	{Category: "suv", HourlyRate: 70},
	{Category: "truck", HourlyRate: 100},
}

type RateTable struct {
	store RateStore
}

func NewRateTable(store RateStore) *RateTable {
	return &RateTable{store: store}
}

// Rate returns the hourly rate for category. An unknown category is reported
// through found, not through err.
func (rt *RateTable) Rate(ctx context.Context, category string) (float64, bool, error) {
	entry, found, err := rt.store.GetRate(ctx, category)
	if err != nil {
		return 0, false, fmt.Errorf("get rate %q: %w", category, err)
	}
	if !found {
		return 0, false, nil
	}
	return entry.HourlyRate, true, nil
}

func (rt *RateTable) SetRate(ctx context.Context, caller Caller, category string, rate float64) (RateEntry, error) {
	if err := Authorize(caller, OpSetRate); err != nil {
		return RateEntry{}, err
	}

	if strings.TrimSpace(category) == "" {
		return RateEntry{}, fmt.Errorf("vehicle category is required: %w", ErrInvalidInput)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return RateEntry{}, fmt.Errorf("hourly rate %v must be a non-negative number: %w", rate, ErrInvalidInput)
	}

	entry := RateEntry{Category: category, HourlyRate: rate}
	if err := rt.store.PutRate(ctx, entry); err != nil {
		return RateEntry{}, fmt.Errorf("put rate %q: %w", category, err)
	}
	return entry, nil
}

func (rt *RateTable) List(ctx context.Context) ([]RateEntry, error) {
	return rt.store.ListRates(ctx)
}

// Seed inserts defaults for categories that have no entry yet. Existing
// entries are left untouched.
func (rt *RateTable) Seed(ctx context.Context, defaults []RateEntry) error {
	for _, d := range defaults {
		_, found, err := rt.store.GetRate(ctx, d.Category)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := rt.store.PutRate(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
