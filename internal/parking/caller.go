package parking

import "fmt"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Caller is an identity that has already been authenticated upstream.
type Caller struct {
	ID       string
	Username string
	Role     Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type Operation string

const (
	OpListSlots         Operation = "list_slots"
	OpCheckIn           Operation = "check_in"
	OpCheckOut          Operation = "check_out"
	OpListRates         Operation = "list_rates"
	OpSetRate           Operation = "set_rate"
	OpListTransactions  Operation = "list_transactions"
	OpCreateReservation Operation = "create_reservation"
	OpListReservations  Operation = "list_reservations"
	OpUpdateReservation Operation = "update_reservation"
	OpListUsers         Operation = "list_users"
)

var adminOperations = map[Operation]bool{
	OpSetRate:   true,
	OpListUsers: true,
}

// RequiresAdmin reports whether op may only be invoked by an admin caller.
func RequiresAdmin(op Operation) bool {
	return adminOperations[op]
}

func Authorize(c Caller, op Operation) error {
	if RequiresAdmin(op) && !c.IsAdmin() {
		return fmt.Errorf("%s requires admin role: %w", op, ErrUnauthorized)
	}
	return nil
}
