package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/logging"
)

const nameMaxLength = 50

var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrNameTooLong   = errors.New("name must be at most 50 characters")
)

// SessionRevoker ends every session an account holds.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

// Recipient is the public view of a username used by the send page.
type Recipient struct {
	Exists          bool   `json:"exists"`
	AcceptsMessages bool   `json:"acceptsMessages"`
	Username        string `json:"username,omitempty"`
}

type Service struct {
	store    account.Store
	sessions SessionRevoker
	logger   *logging.Logger
}

func NewService(store account.Store, sessions SessionRevoker, logger *logging.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// CheckUsernameUnique reports whether username is free. Only verified
// accounts hold a username; pending signups can be displaced.
func (s *Service) CheckUsernameUnique(ctx context.Context, username string) (bool, error) {
	username, err := account.NormalizeUsername(username)
	if err != nil {
		return false, err
	}

	taken, err := s.store.UsernameTaken(ctx, username, uuid.Nil, true)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !taken, nil
}

// ValidateUser resolves a username case-insensitively for the public send page.
func (s *Service) ValidateUser(ctx context.Context, username string) (*Recipient, error) {
	acc, err := s.store.FindRecipient(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return &Recipient{}, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &Recipient{
		Exists:          true,
		AcceptsMessages: acc.IsAcceptingMessages,
		Username:        acc.Username,
	}, nil
}

// Me returns the signed-in account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	acc, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// UpdateProfile changes the username and display name.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, username, name string) (*account.Account, error) {
	username, err := account.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > nameMaxLength {
		return nil, ErrNameTooLong
	}

	taken, err := s.store.UsernameTaken(ctx, username, userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	acc, err := s.store.UpdateProfile(ctx, userID, username, name)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, account.ErrNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return acc, nil
}

// DeleteAccount removes the account with its inbox and ends its sessions.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
			s.logger.Warn("failed to revoke sessions of deleted account", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}
