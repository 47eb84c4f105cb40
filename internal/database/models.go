package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the row stored in the accounts table.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID                  uuid.UUID `bun:"id,pk,type:uuid"`
	Username            string    `bun:"username,notnull"`
	Name                string    `bun:"name,notnull"`
	Email               string    `bun:"email,notnull"`
	PasswordHash        string    `bun:"password_hash,notnull"`
	VerifyCode          string    `bun:"verify_code,notnull"`
	VerifyCodeExpiry    time.Time `bun:"verify_code_expiry,notnull"`
	IsVerified          bool      `bun:"is_verified,notnull"`
	IsAcceptingMessages bool      `bun:"is_accepting_messages,notnull"`
	CreatedAt           time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Message is the row stored in the messages table. Rows are removed with
// their account through ON DELETE CASCADE.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	AccountID uuid.UUID `bun:"account_id,type:uuid,notnull"`
	Content   string    `bun:"content,notnull"`
	IsRead    bool      `bun:"is_read,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
