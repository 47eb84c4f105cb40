package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered identity with its credential, verification state
// and message-acceptance preference.
type Account struct {
	ID                  uuid.UUID `json:"id"`
	Username            string    `json:"username"`
	Name                string    `json:"name,omitempty"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"` // Never expose password hash in JSON
	VerifyCode          string    `json:"-"`
	VerifyCodeExpiry    time.Time `json:"-"`
	IsVerified          bool      `json:"is_verified"`
	IsAcceptingMessages bool      `json:"is_accepting_messages"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Message is an anonymous note in an account's inbox. No sender identity
// is ever recorded.
type Message struct {
	ID        uuid.UUID `json:"_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingSignup carries the fields a signup writes onto an unverified account.
type PendingSignup struct {
	Username         string
	PasswordHash     string
	VerifyCode       string
	VerifyCodeExpiry time.Time
}

// NewPending builds an unverified account that accepts messages.
func NewPending(email string, p PendingSignup) *Account {
	return &Account{
		ID:                  uuid.New(),
		Username:            p.Username,
		Email:               email,
		PasswordHash:        p.PasswordHash,
		VerifyCode:          p.VerifyCode,
		VerifyCodeExpiry:    p.VerifyCodeExpiry,
		IsVerified:          false,
		IsAcceptingMessages: true,
	}
}
