package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/parking"
)

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"token", "alice", "admin", "--id", "7"})

	require.NoError(t, cmd.Execute())

	caller, err := auth.NewIssuer("cli-secret", time.Hour, nil).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, parking.Caller{ID: "7", Username: "alice", Role: parking.RoleAdmin}, caller)
	assert.Contains(t, errOut.String(), "expires at")
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "alice", "superuser"})

	assert.ErrorIs(t, cmd.Execute(), parking.ErrInvalidInput)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})

	assert.Error(t, cmd.Execute())
}
