package parking

import (
	"testing"
	"time"
)

func TestNewSlot(t *testing.T) {
	slotNumber := 1
	slot := NewSlot(slotNumber)

	if slot.Number != slotNumber {
		t.Errorf("Expected slot number %d, got %d", slotNumber, slot.Number)
	}

	if slot.IsOccupied {
		t.Error("Expected new slot to be unoccupied")
	}

	if slot.Vehicle != nil {
		t.Error("Expected new slot to have no vehicle")
	}

	if !slot.Consistent() {
		t.Error("Expected new slot to be consistent")
	}
}

func TestSlotPark(t *testing.T) {
	slot := NewSlot(1)
	vehicle := NewVehicle("KA01HH1234", "car", time.Now())

	slot.Park(vehicle)

	if !slot.IsOccupied {
		t.Error("Expected slot to be occupied after parking")
	}

	if slot.Vehicle != vehicle {
		t.Error("Expected slot to contain the parked vehicle")
	}

	if !slot.Consistent() {
		t.Error("Expected occupied slot to be consistent")
	}
}

func TestSlotLeave(t *testing.T) {
	slot := NewSlot(1)
	vehicle := NewVehicle("KA01HH1234", "car", time.Now())

	slot.Park(vehicle)
	leavingVehicle := slot.Leave()

	if slot.IsOccupied {
		t.Error("Expected slot to be unoccupied after leaving")
	}

	if slot.Vehicle != nil {
		t.Error("Expected slot to have no vehicle after leaving")
	}

	if leavingVehicle != vehicle {
		t.Error("Expected leaving vehicle to be the same as parked vehicle")
	}
}

func TestSlotClone(t *testing.T) {
	slot := NewSlot(3)
	slot.Park(NewVehicle("KA01HH1234", "car", time.Now()))

	clone := slot.Clone()
	clone.Vehicle.PlateNumber = "CHANGED"

	if slot.Vehicle.PlateNumber != "KA01HH1234" {
		t.Errorf("Expected clone to be independent, original plate is %s", slot.Vehicle.PlateNumber)
	}
}

func TestSlotConsistentDetectsMismatch(t *testing.T) {
	slot := Slot{Number: 1, IsOccupied: true}
	if slot.Consistent() {
		t.Error("Expected occupied slot without vehicle to be inconsistent")
	}

	slot = Slot{Number: 1, Vehicle: NewVehicle("KA01HH1234", "car", time.Now())}
	if slot.Consistent() {
		t.Error("Expected free slot with vehicle to be inconsistent")
	}
}
