package parking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedLot struct {
	*Lot
	tracer trace.Tracer

	// Metrics
	checkInOperations  metric.Int64Counter
	checkOutOperations metric.Int64Counter
	revenue            metric.Float64Counter
	stayDuration       metric.Float64Histogram
	operationDuration  metric.Float64Histogram
	occupiedSlotsGauge metric.Int64ObservableGauge
	totalSlotsGauge    metric.Int64ObservableGauge
}

func NewInstrumentedLot(lot *Lot, tracer trace.Tracer, meter metric.Meter) (*InstrumentedLot, error) {
	checkInOperations, err := meter.Int64Counter("parking_check_in_operations_total",
		metric.WithDescription("Total number of check-in operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	checkOutOperations, err := meter.Int64Counter("parking_check_out_operations_total",
		metric.WithDescription("Total number of check-out operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Sum of costs billed at check-out"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	stayDuration, err := meter.Float64Histogram("parking_stay_duration_hours",
		metric.WithDescription("Length of completed occupancy cycles"),
		metric.WithUnit("h"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	occupiedSlotsGauge, err := meter.Int64ObservableGauge("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64ObservableGauge("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	il := &InstrumentedLot{
		Lot:                lot,
		tracer:             tracer,
		checkInOperations:  checkInOperations,
		checkOutOperations: checkOutOperations,
		revenue:            revenue,
		stayDuration:       stayDuration,
		operationDuration:  operationDuration,
		occupiedSlotsGauge: occupiedSlotsGauge,
		totalSlotsGauge:    totalSlotsGauge,
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		summary, err := lot.Slots.Summary(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(occupiedSlotsGauge, int64(summary.Occupied))
		o.ObserveInt64(totalSlotsGauge, int64(summary.Capacity))
		return nil
	}, occupiedSlotsGauge, totalSlotsGauge)
	if err != nil {
		return nil, err
	}

	return il, nil
}

func (il *InstrumentedLot) CheckIn(ctx context.Context, slotNumber int, plateNumber, category string, now time.Time) (Slot, error) {
	ctx, span := il.tracer.Start(ctx, "parking_lot.check_in",
		trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
			attribute.String("vehicle.plate_number", plateNumber),
			attribute.String("vehicle.category", category),
		))
	defer span.End()

	start := time.Now()

	slot, err := il.Engine.CheckIn(ctx, slotNumber, plateNumber, category, now)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "check_in"),
		attribute.String("vehicle_category", category),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("slot_occupied", trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
		))
	}

	il.checkInOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return slot, err
}

func (il *InstrumentedLot) CheckOut(ctx context.Context, slotNumber int, now time.Time) (Receipt, error) {
	ctx, span := il.tracer.Start(ctx, "parking_lot.check_out",
		trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
		))
	defer span.End()

	start := time.Now()

	receipt, err := il.Engine.CheckOut(ctx, slotNumber, now)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "check_out"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		txn := receipt.Transaction
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_category", txn.Category),
		)
		span.SetAttributes(
			attribute.Int64("transaction.id", txn.ID),
			attribute.String("vehicle.plate_number", txn.PlateNumber),
			attribute.Float64("stay.duration_hours", txn.DurationHours),
			attribute.Float64("stay.cost", txn.Cost),
		)
		if !receipt.RateFound {
			span.AddEvent("rate_not_found", trace.WithAttributes(
				attribute.String("vehicle.category", txn.Category),
			))
		}
		span.AddEvent("slot_released")

		categoryAttr := metric.WithAttributes(attribute.String("vehicle_category", txn.Category))
		il.revenue.Add(ctx, txn.Cost, categoryAttr)
		il.stayDuration.Record(ctx, txn.DurationHours, categoryAttr)
	}

	il.checkOutOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return receipt, err
}

func (il *InstrumentedLot) ListSlots(ctx context.Context) ([]Slot, error) {
	ctx, span := il.tracer.Start(ctx, "parking_lot.list_slots")
	defer span.End()

	start := time.Now()

	slots, err := il.Slots.ListAll(ctx)

	il.finish(ctx, span, "list_slots", start, err)
	if err == nil {
		summary := Summarize(slots)
		span.SetAttributes(
			attribute.Int("occupied_slots_count", summary.Occupied),
			attribute.Int("total_capacity", summary.Capacity),
		)
	}

	return slots, err
}

func (il *InstrumentedLot) FindByPlate(ctx context.Context, plateNumber string) (Slot, error) {
	ctx, span := il.tracer.Start(ctx, "parking_lot.find_by_plate",
		trace.WithAttributes(
			attribute.String("vehicle.plate_number", plateNumber),
		))
	defer span.End()

	start := time.Now()

	slot, err := il.Slots.FindByPlate(ctx, plateNumber)

	if err != nil {
		span.AddEvent("vehicle_not_found")
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("slot_number", slot.Number),
		))
	}
	il.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "find_by_plate"),
		attribute.Bool("found", err == nil),
	))

	return slot, err
}

func (il *InstrumentedLot) SetRate(ctx context.Context, caller Caller, category string, rate float64) (RateEntry, error) {
	ctx, span := il.tracer.Start(ctx, "parking_lot.set_rate",
		trace.WithAttributes(
			attribute.String("vehicle.category", category),
			attribute.Float64("rate.hourly", rate),
			attribute.String("caller.role", string(caller.Role)),
		))
	defer span.End()

	start := time.Now()

	entry, err := il.Rates.SetRate(ctx, caller, category, rate)

	il.finish(ctx, span, "set_rate", start, err)
	return entry, err
}

func (il *InstrumentedLot) CreateReservation(ctx context.Context, req NewReservation) (Reservation, error) {
	ctx, span := il.tracer.Start(ctx, "reservations.create",
		trace.WithAttributes(
			attribute.Int("slot_number", req.SlotNumber),
			attribute.String("vehicle.plate_number", req.PlateNumber),
		))
	defer span.End()

	start := time.Now()

	reservation, err := il.Reservations.Create(ctx, req)

	il.finish(ctx, span, "create_reservation", start, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("reservation.id", reservation.ID))
	}
	return reservation, err
}

func (il *InstrumentedLot) UpdateReservationStatus(ctx context.Context, id int64, status ReservationStatus) (Reservation, error) {
	ctx, span := il.tracer.Start(ctx, "reservations.update_status",
		trace.WithAttributes(
			attribute.Int64("reservation.id", id),
			attribute.String("reservation.status", string(status)),
		))
	defer span.End()

	start := time.Now()

	reservation, err := il.Reservations.UpdateStatus(ctx, id, status)

	il.finish(ctx, span, "update_reservation_status", start, err)
	return reservation, err
}

func (il *InstrumentedLot) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
	}

	il.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
}
