package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// Store persists accounts and their embedded inbox. Every method mutates at
// most one account, and each mutation is atomic on its own.
type Store interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// GetByUsername matches the username exactly.
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// FindRecipient matches the username case-insensitively, preferring a
	// verified account when several differ only by case.
	FindRecipient(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// GetByIdentifier matches either the email or the exact username.
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
	// UsernameTaken reports whether an account other than excludeID holds
	// the username. With verifiedOnly set, unverified holders are ignored.
	UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID, verifiedOnly bool) (bool, error)

	// ReplacePending overwrites a still-unverified account with a fresh signup.
	ReplacePending(ctx context.Context, id uuid.UUID, p PendingSignup) error
	// UpdateVerificationCode replaces code and expiry together on an
	// unverified account.
	UpdateVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, username, name string) (*Account, error)
	// SetAcceptingMessages persists the flag and returns the stored value.
	SetAcceptingMessages(ctx context.Context, id uuid.UUID, accepting bool) (bool, error)
	AcceptingMessages(ctx context.Context, id uuid.UUID) (bool, error)

	Delete(ctx context.Context, id uuid.UUID) error
	// DeletePending removes the account only while it is unverified.
	DeletePending(ctx context.Context, id uuid.UUID) error
	// PurgeUnverified removes unverified accounts whose code expired before cutoff.
	PurgeUnverified(ctx context.Context, cutoff time.Time) (int64, error)

	AppendMessage(ctx context.Context, accountID uuid.UUID, msg *Message) error
	// ListMessages returns the inbox newest first.
	ListMessages(ctx context.Context, accountID uuid.UUID) ([]Message, error)
	DeleteMessage(ctx context.Context, accountID, messageID uuid.UUID) error
	MarkMessageRead(ctx context.Context, accountID, messageID uuid.UUID) error
}
