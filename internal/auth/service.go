package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/logging"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrInvalidCode        = errors.New("incorrect verification code")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrEmailSendFailed    = errors.New("failed to send verification email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotVerified = errors.New("account is not verified")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrTooManyAttempts    = errors.New("too many incorrect attempts, request a new code")
)

// Settings holds the lifecycle policy knobs taken from config.
type Settings struct {
	SignupTTL            time.Duration
	ResendTTL            time.Duration
	EnforceExpiry        bool
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	MaxVerifyAttempts    int // zero disables the cap
}

// SignupInput is the raw signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Service handles the verification lifecycle and session issuance.
type Service struct {
	store         account.Store
	refreshTokens RefreshTokenRepository
	tokenService  TokenService
	mailer        Mailer
	logger        *logging.Logger
	recorder      Recorder
	settings      Settings
	attempts      AttemptCounter

	now     func() time.Time
	newCode func() (string, error)
}

func NewService(
	store account.Store,
	refreshTokens RefreshTokenRepository,
	tokenService TokenService,
	mailer Mailer,
	logger *logging.Logger,
	recorder Recorder,
	settings Settings,
) *Service {
	return &Service{
		store:         store,
		refreshTokens: refreshTokens,
		tokenService:  tokenService,
		mailer:        mailer,
		logger:        logger,
		recorder:      recorder,
		settings:      settings,
		now:           time.Now,
		newCode:       generateVerificationCode,
	}
}

// TrackVerifyAttempts enables the per-account cap on wrong verification
// guesses, counted in counter.
func (s *Service) TrackVerifyAttempts(counter AttemptCounter) {
	s.attempts = counter
}

// Signup creates or refreshes a pending account and mails it a code. A
// pending account with the same email is overwritten; a different pending
// account squatting the username is removed.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*account.Account, error) {
	username, err := account.NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := account.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := account.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.store.UsernameTaken(ctx, username, uuid.Nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		s.record("signup", "username_taken")
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	pending := account.PendingSignup{
		Username:         username,
		PasswordHash:     passwordHash,
		VerifyCode:       code,
		VerifyCodeExpiry: s.now().Add(s.settings.SignupTTL).UTC(),
	}

	acc, err := s.storePending(ctx, email, pending)
	if err != nil {
		s.record("signup", "rejected")
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, username, code); err != nil {
		s.logger.Error("failed to send verification email", "user_id", acc.ID, "error", err)
		s.record("signup", "email_failed")
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	s.record("signup", "success")
	return acc, nil
}

func (s *Service) storePending(ctx context.Context, email string, p account.PendingSignup) (*account.Account, error) {
	existing, err := s.store.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, account.ErrNotFound):
		if err := s.evictSquatter(ctx, p.Username, uuid.Nil); err != nil {
			return nil, err
		}
		acc := account.NewPending(email, p)
		if err := s.store.Create(ctx, acc); err != nil {
			return nil, mapDuplicate(err, "failed to create account")
		}
		return acc, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up email: %w", err)
	case existing.IsVerified:
		return nil, ErrEmailTaken
	}

	if err := s.evictSquatter(ctx, p.Username, existing.ID); err != nil {
		return nil, err
	}
	if err := s.store.ReplacePending(ctx, existing.ID, p); err != nil {
		return nil, mapDuplicate(err, "failed to update pending account")
	}

	existing.Username = p.Username
	existing.PasswordHash = p.PasswordHash
	existing.VerifyCode = p.VerifyCode
	existing.VerifyCodeExpiry = p.VerifyCodeExpiry
	return existing, nil
}

// evictSquatter removes an unverified account other than keep that holds
// username, so a fresh signup can claim it.
func (s *Service) evictSquatter(ctx context.Context, username string, keep uuid.UUID) error {
	holder, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, account.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up username: %w", err)
	}
	if holder.ID == keep {
		return nil
	}
	if holder.IsVerified {
		return ErrUsernameTaken
	}
	if err := s.store.DeletePending(ctx, holder.ID); err != nil && !errors.Is(err, account.ErrNotFound) {
		return fmt.Errorf("failed to remove stale pending account: %w", err)
	}
	s.logger.Info("removed stale pending account holding username", "user_id", holder.ID)
	return nil
}

// Provision creates an account that is already verified, skipping the
// emailed code. Any existing holder of the username or email is a conflict.
func (s *Service) Provision(ctx context.Context, in SignupInput) (*account.Account, error) {
	username, err := account.NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := account.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := account.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.store.UsernameTaken(ctx, username, uuid.Nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := account.NewPending(email, account.PendingSignup{
		Username:     username,
		PasswordHash: passwordHash,
	})
	acc.IsVerified = true
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, mapDuplicate(err, "failed to create account")
	}

	s.logger.Info("account provisioned", "user_id", acc.ID, "username", username)
	return acc, nil
}

// VerifyCode marks the account verified when code matches the stored one.
func (s *Service) VerifyCode(ctx context.Context, username, code string) error {
	acc, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if acc.IsVerified {
		s.record("verify", "already_verified")
		return ErrAlreadyVerified
	}
	// an empty stored code was burned by too many wrong guesses
	if acc.VerifyCode == "" {
		s.record("verify", "too_many_attempts")
		return ErrTooManyAttempts
	}
	if s.settings.EnforceExpiry && s.now().After(acc.VerifyCodeExpiry) {
		s.record("verify", "expired")
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(acc.VerifyCode)) != 1 {
		if s.failedAttempt(ctx, acc) {
			s.record("verify", "too_many_attempts")
			return ErrTooManyAttempts
		}
		s.record("verify", "invalid_code")
		return ErrInvalidCode
	}

	if err := s.store.MarkVerified(ctx, acc.ID); err != nil {
		return fmt.Errorf("failed to verify account: %w", err)
	}
	s.record("verify", "success")
	return nil
}

// failedAttempt counts a wrong guess against the account's current code and
// burns the code once the cap is reached. The counter is keyed by the code's
// expiry, so a resend starts a fresh count.
func (s *Service) failedAttempt(ctx context.Context, acc *account.Account) bool {
	if s.attempts == nil || s.settings.MaxVerifyAttempts <= 0 {
		return false
	}

	key := fmt.Sprintf("verify-attempts:%s:%d", acc.ID, acc.VerifyCodeExpiry.UnixNano())
	window := acc.VerifyCodeExpiry.Sub(s.now())
	if window < s.settings.ResendTTL {
		window = s.settings.ResendTTL
	}
	if window <= 0 {
		window = time.Hour
	}

	failures, err := s.attempts.Incr(ctx, key, window)
	if err != nil {
		s.logger.Error("failed to count verification attempt", "user_id", acc.ID, "error", err)
		return false
	}
	if failures < int64(s.settings.MaxVerifyAttempts) {
		return false
	}

	if err := s.store.UpdateVerificationCode(ctx, acc.ID, "", s.now().UTC()); err != nil {
		s.logger.Error("failed to burn verification code", "user_id", acc.ID, "error", err)
	}
	s.logger.Warn("verification code burned after repeated wrong guesses", "user_id", acc.ID, "failures", failures)
	return true
}

// ResendCode issues a new code with the resend TTL. The new code is kept
// even when the email cannot be delivered.
func (s *Service) ResendCode(ctx context.Context, username string) error {
	acc, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if acc.IsVerified {
		s.record("resend", "already_verified")
		return ErrAlreadyVerified
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	expiry := s.now().Add(s.settings.ResendTTL).UTC()
	if err := s.store.UpdateVerificationCode(ctx, acc.ID, code, expiry); err != nil {
		return fmt.Errorf("failed to update verification code: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, acc.Email, acc.Username, code); err != nil {
		s.logger.Warn("failed to resend verification email", "user_id", acc.ID, "error", err)
		s.record("resend", "email_failed")
		return nil
	}

	s.record("resend", "success")
	return nil
}

// SignIn authenticates by email or username and issues a session.
func (s *Service) SignIn(ctx context.Context, identifier, password string) (*AuthTokens, *account.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	acc, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.record("signin", "invalid_credentials")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !verifyPassword(acc.PasswordHash, password) {
		s.record("signin", "invalid_credentials")
		return nil, nil, ErrInvalidCredentials
	}

	// reported only once the password matched
	if !acc.IsVerified {
		s.record("signin", "not_verified")
		return nil, nil, ErrAccountNotVerified
	}

	tokens, err := s.issueTokens(ctx, acc)
	if err != nil {
		return nil, nil, err
	}
	s.record("signin", "success")
	return tokens, acc, nil
}

// Refresh rotates a refresh token and reissues the access token with the
// account's current claims.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	rt, err := s.refreshTokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// Revoke old refresh token before issuing new ones to prevent reuse
	if err := s.refreshTokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	acc, err := s.store.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return s.issueTokens(ctx, acc)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.refreshTokens.RevokeRefreshToken(ctx, refreshToken)
}

// RevokeAllSessions invalidates every refresh token of the account.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return s.refreshTokens.RevokeAllUserTokens(ctx, userID)
}

// ChangePassword replaces the hash after checking the current password and
// signs the account out everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := account.ValidatePassword(newPassword); err != nil {
		return err
	}

	acc, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !verifyPassword(acc.PasswordHash, currentPassword) {
		return ErrIncorrectPassword
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", "user_id", userID, "error", err)
	}
	return nil
}

// issueTokens creates both access and refresh tokens
func (s *Service) issueTokens(ctx context.Context, acc *account.Account) (*AuthTokens, error) {
	accessToken, err := s.tokenService.CreateToken(ClaimsFromAccount(acc), s.settings.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.settings.RefreshTokenDuration)
	if err := s.refreshTokens.StoreRefreshToken(ctx, acc.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.settings.AccessTokenDuration.Seconds()),
	}, nil
}

func (s *Service) record(event, outcome string) {
	if s.recorder != nil {
		s.recorder.AuthEvent(event, outcome)
	}
}

func mapDuplicate(err error, op string) error {
	switch {
	case errors.Is(err, account.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, account.ErrDuplicateEmail):
		return ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
