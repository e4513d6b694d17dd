package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"parking-lot-billing/internal/parking"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID           string
	Username     string
	Email        string
	Role         parking.Role
	Status       Status
	passwordHash []byte
}

func (u User) Caller() parking.Caller {
	return parking.Caller{ID: u.ID, Username: u.Username, Role: u.Role}
}

// Seed describes an account created at startup.
type Seed struct {
	Username string
	Email    string
	Password string
	Role     parking.Role
	Status   Status
}

func DefaultSeeds(adminPassword, userPassword string) []Seed {
	return []Seed{
		{Username: "admin", Email: "admin@parking.local", Password: adminPassword, Role: parking.RoleAdmin, Status: StatusActive},
		{Username: "user", Email: "user@parking.local", Password: userPassword, Role: parking.RoleUser, Status: StatusActive},
	}
}

// Directory is an in-memory account store with bcrypt-hashed passwords.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]User
	nextID int
	cost   int
}

func NewDirectory(seeds []Seed) (*Directory, error) {
	return NewDirectoryWithCost(seeds, bcrypt.DefaultCost)
}

func NewDirectoryWithCost(seeds []Seed, cost int) (*Directory, error) {
	d := &Directory{users: make(map[string]User), cost: cost}
	for _, s := range seeds {
		if _, err := d.Add(s); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Directory) Add(s Seed) (User, error) {
	if s.Username == "" || s.Password == "" {
		return User{}, fmt.Errorf("username and password are required: %w", parking.ErrInvalidInput)
	}
	if !s.Role.Valid() {
		return User{}, fmt.Errorf("role %q: %w", s.Role, parking.ErrInvalidInput)
	}
	if s.Status == "" {
		s.Status = StatusActive
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), d.cost)
	if err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.users[s.Username]; exists {
		return User{}, fmt.Errorf("username %q is taken: %w", s.Username, parking.ErrConflict)
	}
	d.nextID++
	u := User{
		ID:           strconv.Itoa(d.nextID),
		Username:     s.Username,
		Email:        s.Email,
		Role:         s.Role,
		Status:       s.Status,
		passwordHash: hash,
	}
	d.users[u.Username] = u
	return u, nil
}

func (d *Directory) Authenticate(_ context.Context, username, password string) (User, error) {
	d.mu.RLock()
	u, ok := d.users[username]
	d.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return User{}, ErrInactiveUser
	}
	return u, nil
}

// List returns every account ordered by ID. Only admins may list users.
func (d *Directory) List(_ context.Context, caller parking.Caller) ([]User, error) {
	if err := parking.Authorize(caller, parking.OpListUsers); err != nil {
		return nil, err
	}

	d.mu.RLock()
	users := make([]User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	d.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		a, _ := strconv.Atoi(users[i].ID)
		b, _ := strconv.Atoi(users[j].ID)
		return a < b
	})
	return users, nil
}
