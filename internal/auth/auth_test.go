package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"parking-lot-billing/internal/parking"
)

func newDirectory(t *testing.T, extra ...Seed) *Directory {
	t.Helper()
	d, err := NewDirectoryWithCost(append(DefaultSeeds("admin123", "user123"), extra...), bcrypt.MinCost)
	require.NoError(t, err)
	return d
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t, Seed{Username: "guard", Password: "pw", Role: parking.RoleUser, Status: StatusInactive})

	admin, err := d.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, parking.RoleAdmin, admin.Role)
	assert.Equal(t, "1", admin.ID)

	user, err := d.Authenticate(ctx, "user", "user123")
	require.NoError(t, err)
	assert.Equal(t, parking.Caller{ID: "2", Username: "user", Role: parking.RoleUser}, user.Caller())

	_, err = d.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Authenticate(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Authenticate(ctx, "guard", "pw")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestDirectoryAddRejectsDuplicatesAndBadRoles(t *testing.T) {
	d := newDirectory(t)

	_, err := d.Add(Seed{Username: "admin", Password: "x", Role: parking.RoleAdmin})
	assert.ErrorIs(t, err, parking.ErrConflict)

	_, err = d.Add(Seed{Username: "root", Password: "x", Role: parking.Role("superuser")})
	assert.ErrorIs(t, err, parking.ErrInvalidInput)

	_, err = d.Add(Seed{Username: "empty", Role: parking.RoleUser})
	assert.ErrorIs(t, err, parking.ErrInvalidInput)
}

func TestListRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	admin, err := d.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	users, err := d.List(ctx, admin.Caller())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "user", users[1].Username)

	user, err := d.Authenticate(ctx, "user", "user123")
	require.NoError(t, err)
	_, err = d.List(ctx, user.Caller())
	assert.ErrorIs(t, err, parking.ErrUnauthorized)
}

func TestIssuerRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour, func() time.Time { return now })
	caller := parking.Caller{ID: "1", Username: "admin", Role: parking.RoleAdmin}

	token, expiresAt, err := issuer.Issue(caller)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, caller, got)
}

func TestIssuerRejectsBadTokens(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := now
	issuer := NewIssuer("secret", time.Hour, func() time.Time { return clock })
	caller := parking.Caller{ID: "2", Username: "user", Role: parking.RoleUser}

	token, _, err := issuer.Issue(caller)
	require.NoError(t, err)

	other := NewIssuer("other-secret", time.Hour, func() time.Time { return now })
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock = now.Add(2 * time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	clock = now
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "user",
		Role:     "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "2",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = issuer.Issue(parking.Caller{ID: "3", Role: parking.Role("guest")})
	assert.ErrorIs(t, err, parking.ErrInvalidInput)
}
