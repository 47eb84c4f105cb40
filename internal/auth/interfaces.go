package auth

import (
	"context"
	"time"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(claims SessionClaims, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, username, code string) error
}

// Recorder counts auth outcomes. A nil Recorder is allowed.
type Recorder interface {
	AuthEvent(event, outcome string)
}

// AttemptCounter counts failed verification guesses per key within a window.
// The rate limiter backends satisfy it.
type AttemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
