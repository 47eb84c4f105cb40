package auth

import (
	"time"

	"github.com/redmonkez12/anonify/internal/account"
)

// SessionClaims is the minimal account snapshot carried inside an access
// token, so handlers can answer without a store round trip.
type SessionClaims struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Verified          bool   `json:"verified"`
	AcceptingMessages bool   `json:"accepting_messages"`
}

// TokenClaims are the verified contents of an access token.
type TokenClaims struct {
	SessionClaims
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// ClaimsFromAccount builds the session claim set after a successful
// credential check. It only reads acc.
func ClaimsFromAccount(acc *account.Account) SessionClaims {
	return SessionClaims{
		UserID:            acc.ID.String(),
		Username:          acc.Username,
		Email:             acc.Email,
		Verified:          acc.IsVerified,
		AcceptingMessages: acc.IsAcceptingMessages,
	}
}
