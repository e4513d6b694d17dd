package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ShellOperator is the identity the interactive shell acts as.
var ShellOperator = Caller{ID: "shell", Username: "operator", Role: RoleAdmin}

type InstrumentedShell struct {
	lot     *InstrumentedLot
	tracer  trace.Tracer
	scanner *bufio.Scanner
	out     io.Writer
	now     func() time.Time
}

func NewInstrumentedShell(lot *InstrumentedLot, tracer trace.Tracer, in io.Reader, out io.Writer, now func() time.Time) *InstrumentedShell {
	if now == nil {
		now = time.Now
	}
	return &InstrumentedShell{
		lot:     lot,
		tracer:  tracer,
		scanner: bufio.NewScanner(in),
		out:     out,
		now:     now,
	}
}

func (s *InstrumentedShell) Run(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for {
		if ctx.Err() != nil {
			break
		}
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := s.tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *InstrumentedShell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *InstrumentedShell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

func (s *InstrumentedShell) processCommand(ctx context.Context, input string) {
	_, span := s.tracer.Start(ctx, "shell.parse_command")
	defer span.End()

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(ctx, parts)
	case "check_in":
		s.handleCheckIn(ctx, parts)
	case "check_out":
		s.handleCheckOut(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "slot_number_for_registration_number":
		s.handleSlotNumberForRegistrationNumber(ctx, parts)
	case "rates":
		s.handleRates(ctx)
	case "set_rate":
		s.handleSetRate(ctx, parts)
	case "reserve":
		s.handleReserve(ctx, parts)
	case "reservations":
		s.handleReservations(ctx)
	case "set_reservation_status":
		s.handleSetReservationStatus(ctx, parts)
	case "transactions":
		s.handleTransactions(ctx)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *InstrumentedShell) handleCreateParkingLot(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.create_parking_lot")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: create_parking_lot <capacity>")
		return
	}

	capacity, err := strconv.Atoi(parts[1])
	if err != nil || capacity <= 0 {
		span.RecordError(fmt.Errorf("invalid capacity: %s", parts[1]))
		span.AddEvent("invalid_capacity")
		s.println("Invalid capacity")
		return
	}

	span.SetAttributes(attribute.Int("parking_lot.capacity", capacity))

	if err := s.lot.Slots.Initialize(ctx, capacity); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrAlreadyInitialized) {
			s.println("Parking lot already created")
			return
		}
		s.printf("Error creating parking lot: %s\n", err.Error())
		return
	}

	span.AddEvent("parking_lot_created")
	s.printf("Created a parking lot with %d slots\n", capacity)
}

func (s *InstrumentedShell) handleCheckIn(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.check_in_command")
	defer span.End()

	if len(parts) != 4 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: check_in <slot_number> <plate_number> <vehicle_category>")
		return
	}

	slotNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		span.RecordError(fmt.Errorf("invalid slot number: %s", parts[1]))
		s.println("Invalid slot number")
		return
	}

	slot, err := s.lot.CheckIn(ctx, slotNumber, parts[2], parts[3], s.now())
	if err != nil {
		span.AddEvent("check_in_failed")
		s.printf("Error: %s\n", err.Error())
		return
	}

	span.AddEvent("check_in_successful")
	s.printf("Checked in %s (%s) at slot number %d\n", slot.Vehicle.PlateNumber, slot.Vehicle.Category, slot.Number)
}

func (s *InstrumentedShell) handleCheckOut(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.check_out_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: check_out <slot_number>")
		return
	}

	slotNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		span.RecordError(fmt.Errorf("invalid slot number: %s", parts[1]))
		span.AddEvent("invalid_slot_number")
		s.println("Invalid slot number")
		return
	}

	span.SetAttributes(attribute.Int("slot_number", slotNumber))

	receipt, err := s.lot.CheckOut(ctx, slotNumber, s.now())
	if err != nil {
		span.AddEvent("check_out_failed")
		s.printf("Error: %s\n", err.Error())
		return
	}

	span.AddEvent("check_out_successful")
	s.printf("Slot number %d is free\n", slotNumber)
	s.printf("Duration: %.2f hours, Cost: %.2f\n", receipt.DurationHours(), receipt.Cost())
}

func (s *InstrumentedShell) handleStatus(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.status_command")
	defer span.End()

	slots, err := s.lot.ListSlots(ctx)
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err.Error())
		return
	}
	if len(slots) == 0 {
		span.AddEvent("parking_lot_not_created")
		s.println("Parking lot not created")
		return
	}

	summary := Summarize(slots)
	if summary.Occupied == 0 {
		span.AddEvent("parking_lot_empty")
		s.println("Parking lot is empty")
		return
	}

	span.SetAttributes(attribute.Int("occupied_slots_count", summary.Occupied))
	span.AddEvent("status_retrieved")

	s.println("Slot No.\tPlate No.\tCategory\tChecked In")
	for _, slot := range slots {
		if !slot.IsOccupied {
			continue
		}
		s.printf("%d\t\t%s\t%s\t%s\n", slot.Number, slot.Vehicle.PlateNumber, slot.Vehicle.Category,
			slot.Vehicle.CheckInTime.Format(time.RFC3339))
	}
}

func (s *InstrumentedShell) handleSlotNumberForRegistrationNumber(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.find_slot_by_plate")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: slot_number_for_registration_number <plate_number>")
		return
	}

	plateNumber := parts[1]
	span.SetAttributes(attribute.String("vehicle.plate_number", plateNumber))

	slot, err := s.lot.FindByPlate(ctx, plateNumber)
	if err != nil {
		span.AddEvent("vehicle_not_found")
		s.println("Not found")
		return
	}

	span.AddEvent("vehicle_found", trace.WithAttributes(
		attribute.Int("slot_number", slot.Number),
	))
	s.printf("%d\n", slot.Number)
}

func (s *InstrumentedShell) handleRates(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.rates_command")
	defer span.End()

	rates, err := s.lot.Rates.List(ctx)
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err.Error())
		return
	}
	if len(rates) == 0 {
		s.println("No rates configured")
		return
	}

	s.println("Category\tHourly Rate")
	for _, r := range rates {
		s.printf("%s\t\t%.2f\n", r.Category, r.HourlyRate)
	}
}

func (s *InstrumentedShell) handleSetRate(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.set_rate_command")
	defer span.End()

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: set_rate <vehicle_category> <hourly_rate>")
		return
	}

	rate, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		span.RecordError(fmt.Errorf("invalid rate: %s", parts[2]))
		s.println("Invalid rate")
		return
	}

	entry, err := s.lot.SetRate(ctx, ShellOperator, parts[1], rate)
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Rate for %s set to %.2f per hour\n", entry.Category, entry.HourlyRate)
}

func (s *InstrumentedShell) handleReserve(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.reserve_command")
	defer span.End()

	if len(parts) != 6 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: reserve <username> <plate_number> <vehicle_category> <slot_number> <date>")
		return
	}

	slotNumber, err := strconv.Atoi(parts[4])
	if err != nil {
		span.RecordError(fmt.Errorf("invalid slot number: %s", parts[4]))
		s.println("Invalid slot number")
		return
	}

	reservation, err := s.lot.CreateReservation(ctx, NewReservation{
		RequesterID: ShellOperator.ID,
		Username:    parts[1],
		PlateNumber: parts[2],
		Category:    parts[3],
		SlotNumber:  slotNumber,
		Date:        parts[5],
	})
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Reservation %d created for slot number %d on %s\n",
		reservation.ID, reservation.SlotNumber, reservation.Date.Format(time.RFC3339))
}

func (s *InstrumentedShell) handleReservations(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.reservations_command")
	defer span.End()

	reservations, err := s.lot.Reservations.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err.Error())
		return
	}
	if len(reservations) == 0 {
		s.println("No reservations")
		return
	}

	s.println("ID\tUser\tPlate No.\tSlot No.\tDate\tStatus")
	for _, r := range reservations {
		s.printf("%d\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.Username, r.PlateNumber, r.SlotNumber,
			r.Date.Format(time.RFC3339), r.Status)
	}
}

func (s *InstrumentedShell) handleSetReservationStatus(ctx context.Context, parts []string) {
	ctx, span := s.tracer.Start(ctx, "shell.set_reservation_status_command")
	defer span.End()

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: set_reservation_status <reservation_id> <status>")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		span.RecordError(fmt.Errorf("invalid reservation id: %s", parts[1]))
		s.println("Invalid reservation id")
		return
	}

	reservation, err := s.lot.UpdateReservationStatus(ctx, id, ReservationStatus(parts[2]))
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("Reservation %d is now %s\n", reservation.ID, reservation.Status)
}

func (s *InstrumentedShell) handleTransactions(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.transactions_command")
	defer span.End()

	txns, err := s.lot.Transactions.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err.Error())
		return
	}
	if len(txns) == 0 {
		s.println("No transactions")
		return
	}

	s.println("ID\tSlot No.\tPlate No.\tCategory\tHours\tCost")
	for _, t := range txns {
		s.printf("%d\t%d\t\t%s\t%s\t%.2f\t%.2f\n", t.ID, t.SlotNumber, t.PlateNumber, t.Category,
			t.DurationHours, t.Cost)
	}
}
