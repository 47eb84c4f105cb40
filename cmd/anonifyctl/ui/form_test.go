package ui

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/anonify/internal/account"
)

func TestAccountInput_Complete(t *testing.T) {
	assert.True(t, AccountInput{Username: "ops", Email: "ops@example.com", Password: "secret1"}.Complete())
	assert.False(t, AccountInput{Username: "  ", Email: "ops@example.com", Password: "secret1"}.Complete())
	assert.False(t, AccountInput{Username: "ops", Email: "ops@example.com"}.Complete())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateUsername("ops_1"))
	assert.ErrorIs(t, validateUsername("o"), account.ErrUsernameLength)
	assert.ErrorIs(t, validateUsername("bad name"), account.ErrUsernameCharacters)
	assert.NoError(t, validateEmail("Ops@Example.com"))
	assert.ErrorIs(t, validateEmail("nope"), account.ErrInvalidEmailFormat)
}

func TestPrintAccount(t *testing.T) {
	var buf bytes.Buffer
	PrintAccount(&buf, &account.Account{ID: uuid.New(), Username: "ops", Email: "ops@example.com", IsVerified: true})

	assert.Contains(t, buf.String(), "ops@example.com")
	assert.Contains(t, buf.String(), "true")
}
