package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/anonify/internal/database"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"
)

// Repository handles account persistence in Postgres through bun.
type Repository struct {
	db *bun.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account
func (r *Repository) Create(ctx context.Context, acc *Account) error {
	row := mapModelToDBAccount(acc)

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	*acc = *mapDBAccountToModel(row)
	return nil
}

// GetByID retrieves an account by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.getOne(ctx, "get account by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, "get account by username", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("username = ?", username)
	})
}

func (r *Repository) FindRecipient(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, "find recipient", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(username) = LOWER(?)", username).
			OrderExpr("is_verified DESC, created_at ASC")
	})
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, "get account by email", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	return r.getOne(ctx, "get account by identifier", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("email = LOWER(?)", identifier).WhereOr("username = ?", identifier)
		}).OrderExpr("is_verified DESC")
	})
}

func (r *Repository) UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID, verifiedOnly bool) (bool, error) {
	q := r.db.NewSelect().
		Model((*database.Account)(nil)).
		Where("username = ?", username).
		Where("id <> ?", excludeID)
	if verifiedOnly {
		q = q.Where("is_verified = ?", true)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *Repository) ReplacePending(ctx context.Context, id uuid.UUID, p PendingSignup) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("username = ?", p.Username).
		Set("password_hash = ?", p.PasswordHash).
		Set("verify_code = ?", p.VerifyCode).
		Set("verify_code_expiry = ?", p.VerifyCodeExpiry).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("is_verified = ?", false).
		Exec(ctx)
	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to replace pending signup: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}

// UpdateVerificationCode regenerates the verification code for resend
func (r *Repository) UpdateVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("verify_code = ?", code).
		Set("verify_code_expiry = ?", expiry).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("is_verified = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update verification code: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}

func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.updateByID(ctx, id, "mark account verified", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("is_verified = ?", true)
	})
}

// UpdatePassword updates an account's password hash
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateByID(ctx, id, "update password", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("password_hash = ?", passwordHash)
	})
}

func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, username, name string) (*Account, error) {
	err := r.updateByID(ctx, id, "update profile", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("username = ?", username).Set("name = ?", name)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) SetAcceptingMessages(ctx context.Context, id uuid.UUID, accepting bool) (bool, error) {
	var stored bool
	err := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("is_accepting_messages = ?", accepting).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("is_accepting_messages").
		Scan(ctx, &stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to update message acceptance: %w", err)
	}
	return stored, nil
}

func (r *Repository) AcceptingMessages(ctx context.Context, id uuid.UUID) (bool, error) {
	var accepting bool
	err := r.db.NewSelect().
		Model((*database.Account)(nil)).
		Column("is_accepting_messages").
		Where("id = ?", id).
		Scan(ctx, &accepting)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to get message acceptance: %w", err)
	}
	return accepting, nil
}

// Delete removes the account; its messages go with it through the cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}

func (r *Repository) DeletePending(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Account)(nil)).
		Where("id = ?", id).
		Where("is_verified = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete pending account: %w", err)
	}
	return requireAffected(result, ErrNotFound)
}

func (r *Repository) PurgeUnverified(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.Account)(nil)).
		Where("is_verified = ?", false).
		Where("verify_code_expiry < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge unverified accounts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *Repository) AppendMessage(ctx context.Context, accountID uuid.UUID, msg *Message) error {
	row := &database.Message{
		ID:        msg.ID,
		AccountID: accountID,
		Content:   msg.Content,
		IsRead:    msg.IsRead,
		CreatedAt: msg.CreatedAt,
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("failed to append message: %w", err)
	}

	*msg = mapDBMessageToModel(row)
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, accountID uuid.UUID) ([]Message, error) {
	var rows []database.Message
	err := r.db.NewSelect().
		Model(&rows).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, mapDBMessageToModel(&rows[i]))
	}
	return messages, nil
}

func (r *Repository) DeleteMessage(ctx context.Context, accountID, messageID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Message)(nil)).
		Where("id = ?", messageID).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return requireAffected(result, ErrMessageNotFound)
}

func (r *Repository) MarkMessageRead(ctx context.Context, accountID, messageID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Message)(nil)).
		Set("is_read = ?", true).
		Where("id = ?", messageID).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return requireAffected(result, ErrMessageNotFound)
}

func (r *Repository) getOne(ctx context.Context, op string, where func(*bun.SelectQuery) *bun.SelectQuery) (*Account, error) {
	row := new(database.Account)
	err := where(r.db.NewSelect().Model(row)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return mapDBAccountToModel(row), nil
}

func (r *Repository) updateByID(ctx context.Context, id uuid.UUID, op string, set func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	result, err := set(r.db.NewUpdate().Model((*database.Account)(nil))).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return requireAffected(result, ErrNotFound)
}

func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case usernameConstraint:
		return ErrDuplicateUsername
	case emailConstraint:
		return ErrDuplicateEmail
	}
	return nil
}

func mapModelToDBAccount(acc *Account) *database.Account {
	id := acc.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &database.Account{
		ID:                  id,
		Username:            acc.Username,
		Name:                acc.Name,
		Email:               acc.Email,
		PasswordHash:        acc.PasswordHash,
		VerifyCode:          acc.VerifyCode,
		VerifyCodeExpiry:    acc.VerifyCodeExpiry,
		IsVerified:          acc.IsVerified,
		IsAcceptingMessages: acc.IsAcceptingMessages,
		CreatedAt:           acc.CreatedAt,
		UpdatedAt:           acc.UpdatedAt,
	}
}

// mapDBAccountToModel converts database model to domain model
func mapDBAccountToModel(row *database.Account) *Account {
	return &Account{
		ID:                  row.ID,
		Username:            row.Username,
		Name:                row.Name,
		Email:               row.Email,
		PasswordHash:        row.PasswordHash,
		VerifyCode:          row.VerifyCode,
		VerifyCodeExpiry:    row.VerifyCodeExpiry,
		IsVerified:          row.IsVerified,
		IsAcceptingMessages: row.IsAcceptingMessages,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func mapDBMessageToModel(row *database.Message) Message {
	return Message{
		ID:        row.ID,
		Content:   row.Content,
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
	}
}
