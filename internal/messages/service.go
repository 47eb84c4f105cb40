package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/logging"
)

var (
	ErrMissingFields   = errors.New("username and message content are required")
	ErrContentTooLong  = errors.New("message content is too long")
	ErrNotAccepting    = errors.New("user is not accepting messages at the moment")
	ErrMessageNotFound = account.ErrMessageNotFound
)

// Submission outcomes reported to the Recorder.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeNotAccepting = "not_accepting"
	OutcomeError        = "error"
)

// Recorder counts submission outcomes. A nil Recorder is allowed.
type Recorder interface {
	MessageSubmitted(outcome string)
}

// Service is the anonymous message gate plus the owner's inbox operations.
type Service struct {
	store     account.Store
	logger    *logging.Logger
	recorder  Recorder
	maxLength int
	now       func() time.Time
}

func NewService(store account.Store, logger *logging.Logger, recorder Recorder, maxLength int) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		recorder:  recorder,
		maxLength: maxLength,
		now:       time.Now,
	}
}

// Submit appends an anonymous message to the recipient's inbox. The sender
// is never recorded.
func (s *Service) Submit(ctx context.Context, recipientUsername, content string) error {
	outcome := OutcomeError
	defer func() { s.record(outcome) }()

	recipientUsername = strings.TrimSpace(recipientUsername)
	if recipientUsername == "" || strings.TrimSpace(content) == "" {
		outcome = OutcomeInvalid
		return ErrMissingFields
	}
	if s.maxLength > 0 && utf8.RuneCountInString(content) > s.maxLength {
		outcome = OutcomeInvalid
		return fmt.Errorf("%w: limit is %d characters", ErrContentTooLong, s.maxLength)
	}

	recipient, err := s.store.FindRecipient(ctx, recipientUsername)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			outcome = OutcomeNotFound
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to find recipient: %w", err)
	}

	if !recipient.IsAcceptingMessages {
		outcome = OutcomeNotAccepting
		return ErrNotAccepting
	}

	msg := &account.Message{
		Content:   content,
		IsRead:    false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, recipient.ID, msg); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// recipient deleted between lookup and append
			outcome = OutcomeNotFound
			return account.ErrNotFound
		}
		return fmt.Errorf("failed to append message: %w", err)
	}

	outcome = OutcomeAccepted
	s.logger.Debug("message accepted", "recipient_id", recipient.ID, "message_id", msg.ID)
	return nil
}

// GetStatus returns the account's current acceptance flag.
func (s *Service) GetStatus(ctx context.Context, accountID uuid.UUID) (bool, error) {
	accepting, err := s.store.AcceptingMessages(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("failed to get acceptance status: %w", err)
	}
	return accepting, nil
}

// SetStatus persists the acceptance flag and returns the stored value.
func (s *Service) SetStatus(ctx context.Context, accountID uuid.UUID, accepting bool) (bool, error) {
	stored, err := s.store.SetAcceptingMessages(ctx, accountID, accepting)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("failed to set acceptance status: %w", err)
	}

	s.logger.Info("message acceptance updated", "user_id", accountID, "accepting", stored)
	return stored, nil
}

// List returns the owner's inbox, newest first.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]account.Message, error) {
	if _, err := s.store.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	msgs, err := s.store.ListMessages(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// Delete removes one message from the owner's inbox.
func (s *Service) Delete(ctx context.Context, accountID, messageID uuid.UUID) error {
	if err := s.store.DeleteMessage(ctx, accountID, messageID); err != nil {
		if errors.Is(err, account.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// MarkRead flags one message in the owner's inbox as read.
func (s *Service) MarkRead(ctx context.Context, accountID, messageID uuid.UUID) error {
	if err := s.store.MarkMessageRead(ctx, accountID, messageID); err != nil {
		if errors.Is(err, account.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.MessageSubmitted(outcome)
	}
}
