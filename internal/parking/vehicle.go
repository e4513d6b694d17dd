package parking

import "time"

type Vehicle struct {
	PlateNumber string
	Category    string
	CheckInTime time.Time
}

func NewVehicle(plateNumber, category string, checkInTime time.Time) *Vehicle {
	return &Vehicle{
		PlateNumber: plateNumber,
		Category:    category,
		CheckInTime: checkInTime,
	}
}
