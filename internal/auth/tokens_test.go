package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/anonify/internal/account"
)

func testClaims() SessionClaims {
	return ClaimsFromAccount(&account.Account{
		ID:                  uuid.New(),
		Username:            "alice",
		Email:               "a@x.com",
		IsVerified:          true,
		IsAcceptingMessages: false,
	})
}

func tokenServices(t *testing.T) map[string]TokenService {
	t.Helper()
	p, err := NewPasetoService([]byte(testKey))
	require.NoError(t, err)
	j, err := NewJWTService([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return map[string]TokenService{"paseto": p, "jwt": j}
}

func TestTokenServices_RoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			claims := testClaims()
			token, err := svc.CreateToken(claims, time.Minute)
			require.NoError(t, err)

			got, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, claims, got.SessionClaims)
			assert.False(t, got.AcceptingMessages)
			assert.WithinDuration(t, time.Now().Add(time.Minute), got.ExpiresAt, 2*time.Second)
		})
	}
}

func TestTokenServices_Expired(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(testClaims(), -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenServices_Tampered(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	other, err := NewPasetoService([]byte(strings.Repeat("z", 32)))
	require.NoError(t, err)
	token, err := other.CreateToken(testClaims(), time.Minute)
	require.NoError(t, err)
	_, err = tokenServices(t)["paseto"].VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenServices_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)
	_, err = NewJWTService([]byte("short"))
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, hashToken("abc"), hashToken("abc"))
	assert.NotEqual(t, hashToken("abc"), hashToken("abd"))
	assert.Len(t, hashToken("abc"), 64)
}
