package parking

type Slot struct {
	Number     int
	IsOccupied bool
	Vehicle    *Vehicle
}

func NewSlot(number int) *Slot {
	return &Slot{
		Number:     number,
		IsOccupied: false,
		Vehicle:    nil,
	}
}

func (s *Slot) Park(vehicle *Vehicle) {
	s.Vehicle = vehicle
	s.IsOccupied = true
}

func (s *Slot) Leave() *Vehicle {
	vehicle := s.Vehicle
	s.Vehicle = nil
	s.IsOccupied = false
	return vehicle
}

// Consistent reports whether the occupancy flag agrees with the occupant.
func (s Slot) Consistent() bool {
	return s.IsOccupied == (s.Vehicle != nil)
}

// Clone returns a copy that shares no memory with s.
func (s Slot) Clone() Slot {
	if s.Vehicle != nil {
		v := *s.Vehicle
		s.Vehicle = &v
	}
	return s
}
