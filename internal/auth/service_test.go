package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

const testKey = "0123456789abcdef0123456789abcdef"

type sentEmail struct {
	to, username, code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to: to, username: username, code: code})
	return m.err
}

func (m *fakeMailer) last(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type fakeRecorder struct {
	events []string
}

func (r *fakeRecorder) AuthEvent(event, outcome string) {
	r.events = append(r.events, event+":"+outcome)
}

type testEnv struct {
	svc      *Service
	store    *account.MemoryStore
	refresh  *MemoryRepository
	tokens   *PasetoService
	mailer   *fakeMailer
	recorder *fakeRecorder
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := NewPasetoService([]byte(testKey))
	require.NoError(t, err)

	env := &testEnv{
		store:    account.NewMemoryStore(),
		refresh:  NewMemoryRepository(),
		tokens:   tokens,
		mailer:   &fakeMailer{},
		recorder: &fakeRecorder{},
		now:      time.Now(),
	}
	env.svc = NewService(env.store, env.refresh, tokens, env.mailer, logging.NewDiscardLogger(), env.recorder, Settings{
		SignupTTL:            time.Hour,
		ResendTTL:            15 * time.Minute,
		EnforceExpiry:        true,
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
		MaxVerifyAttempts:    5,
	})
	env.svc.TrackVerifyAttempts(ratelimit.NewMemoryBackend())
	env.svc.now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) signup(t *testing.T, username, email, password string) *account.Account {
	t.Helper()
	acc, err := e.svc.Signup(context.Background(), SignupInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return acc
}

func (e *testEnv) signupVerified(t *testing.T, username, email, password string) *account.Account {
	t.Helper()
	acc := e.signup(t, username, email, password)
	require.NoError(t, e.svc.VerifyCode(context.Background(), username, e.mailer.last(t).code))
	return acc
}

func TestSignup_CreatesPendingAccount(t *testing.T) {
	env := newTestEnv(t)

	acc := env.signup(t, "alice", "a@x.com", "secret1")

	stored, err := env.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, stored.ID)
	assert.False(t, stored.IsVerified)
	assert.True(t, stored.IsAcceptingMessages)
	assert.Len(t, stored.VerifyCode, 6)
	assert.WithinDuration(t, env.now.Add(time.Hour), stored.VerifyCodeExpiry, time.Second)
	assert.NotContains(t, stored.PasswordHash, "secret1")

	mail := env.mailer.last(t)
	assert.Equal(t, "a@x.com", mail.to)
	assert.Equal(t, "alice", mail.username)
	assert.Equal(t, stored.VerifyCode, mail.code)
	assert.Contains(t, env.recorder.events, "signup:success")
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, SignupInput{Username: "a", Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, account.ErrUsernameLength)

	_, err = env.svc.Signup(ctx, SignupInput{Username: "alice", Email: "nope", Password: "secret1"})
	assert.ErrorIs(t, err, account.ErrInvalidEmailFormat)

	_, err = env.svc.Signup(ctx, SignupInput{Username: "alice", Email: "a@x.com", Password: "123"})
	assert.ErrorIs(t, err, account.ErrPasswordTooShort)

	assert.Empty(t, env.mailer.sent)
}

func TestSignup_RejectsVerifiedUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signupVerified(t, "alice", "a@x.com", "secret1")

	_, err := env.svc.Signup(ctx, SignupInput{Username: "alice", Email: "other@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.svc.Signup(ctx, SignupInput{Username: "alice2", Email: "A@X.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_OverwritesPendingAccountWithSameEmail(t *testing.T) {
	env := newTestEnv(t)
	first := env.signup(t, "alice", "a@x.com", "secret1")

	second := env.signup(t, "alice_b", "a@x.com", "secret2")

	assert.Equal(t, first.ID, second.ID)
	stored, err := env.store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice_b", stored.Username)
	assert.Equal(t, env.mailer.last(t).code, stored.VerifyCode)
	assert.True(t, verifyPassword(stored.PasswordHash, "secret2"))
}

func TestSignup_EvictsPendingUsernameSquatter(t *testing.T) {
	env := newTestEnv(t)
	squatter := env.signup(t, "alice", "squat@x.com", "secret1")

	acc := env.signup(t, "alice", "real@x.com", "secret1")

	_, err := env.store.GetByID(context.Background(), squatter.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)
	stored, err := env.store.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, stored.ID)
}

func TestSignup_EmailFailureIsReported(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp: 535 authentication failed")

	_, err := env.svc.Signup(context.Background(), SignupInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrEmailSendFailed)
	assert.Contains(t, env.recorder.events, "signup:email_failed")
}

func TestVerifyCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")
	code := env.mailer.last(t).code

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := env.svc.VerifyCode(ctx, "alice", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)
	acc, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, acc.IsVerified)

	require.NoError(t, env.svc.VerifyCode(ctx, "alice", code))
	acc, err = env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acc.IsVerified)

	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", code), ErrAlreadyVerified)
	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "ghost", code), account.ErrNotFound)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestVerifyCode_BurnsCodeAfterRepeatedWrongGuesses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")
	code := env.mailer.last(t).code

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", wrongCode(code)), ErrInvalidCode)
	}
	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", wrongCode(code)), ErrTooManyAttempts)

	// the right code no longer works once burned
	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", code), ErrTooManyAttempts)
	acc, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, acc.IsVerified)
	assert.Empty(t, acc.VerifyCode)
	assert.Contains(t, env.recorder.events, "verify:too_many_attempts")

	env.now = env.now.Add(time.Minute)
	require.NoError(t, env.svc.ResendCode(ctx, "alice"))
	fresh := env.mailer.last(t).code
	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", wrongCode(fresh)), ErrInvalidCode)
	require.NoError(t, env.svc.VerifyCode(ctx, "alice", fresh))
}

func TestVerifyCode_NoCapWithoutCounter(t *testing.T) {
	env := newTestEnv(t)
	env.svc.attempts = nil
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")
	code := env.mailer.last(t).code

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", wrongCode(code)), ErrInvalidCode)
	}
	assert.NoError(t, env.svc.VerifyCode(ctx, "alice", code))
}

func TestVerifyCode_Expiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")
	code := env.mailer.last(t).code

	env.now = env.now.Add(61 * time.Minute)
	assert.ErrorIs(t, env.svc.VerifyCode(ctx, "alice", code), ErrCodeExpired)

	env.svc.settings.EnforceExpiry = false
	assert.NoError(t, env.svc.VerifyCode(ctx, "alice", code))
}

func TestResendCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")

	env.now = env.now.Add(5 * time.Minute)
	require.NoError(t, env.svc.ResendCode(ctx, "alice"))

	acc, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, env.mailer.last(t).code, acc.VerifyCode)
	assert.WithinDuration(t, env.now.Add(15*time.Minute), acc.VerifyCodeExpiry, time.Second)

	assert.ErrorIs(t, env.svc.ResendCode(ctx, "ghost"), account.ErrNotFound)
}

func TestResendCode_AlreadyVerifiedDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signupVerified(t, "alice", "a@x.com", "secret1")
	before, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	sent := len(env.mailer.sent)

	assert.ErrorIs(t, env.svc.ResendCode(ctx, "alice"), ErrAlreadyVerified)

	after, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.VerifyCode, after.VerifyCode)
	assert.True(t, before.VerifyCodeExpiry.Equal(after.VerifyCodeExpiry))
	assert.Len(t, env.mailer.sent, sent)
}

func TestResendCode_EmailFailureKeepsNewCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "a@x.com", "secret1")
	env.mailer.err = errors.New("connection refused")

	require.NoError(t, env.svc.ResendCode(ctx, "alice"))

	acc, err := env.store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, env.mailer.last(t).code, acc.VerifyCode)
}

func TestSignIn_UnverifiedFailsWithCorrectPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", "a@x.com", "secret1")

	_, _, err := env.svc.SignIn(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, ErrAccountNotVerified)
}

func TestSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	acc := env.signupVerified(t, "alice", "a@x.com", "secret1")

	_, _, err := env.svc.SignIn(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.svc.SignIn(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	for _, identifier := range []string{"alice", "a@x.com", "A@X.COM"} {
		tokens, signedIn, err := env.svc.SignIn(ctx, identifier, "secret1")
		require.NoError(t, err, identifier)
		assert.Equal(t, acc.ID, signedIn.ID)
		assert.Equal(t, "Bearer", tokens.TokenType)

		claims, err := env.tokens.VerifyToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, acc.ID.String(), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.True(t, claims.Verified)
		assert.True(t, claims.AcceptingMessages)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signupVerified(t, "alice", "a@x.com", "secret1")
	tokens, _, err := env.svc.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)

	rotated, err := env.svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = env.svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = env.svc.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	acc := env.signupVerified(t, "alice", "a@x.com", "secret1")
	tokens, _, err := env.svc.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.ChangePassword(ctx, acc.ID, "wrong", "newsecret"), ErrIncorrectPassword)
	assert.ErrorIs(t, env.svc.ChangePassword(ctx, acc.ID, "secret1", "123"), account.ErrPasswordTooShort)

	require.NoError(t, env.svc.ChangePassword(ctx, acc.ID, "secret1", "newsecret"))

	_, _, err = env.svc.SignIn(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.svc.SignIn(ctx, "alice", "newsecret")
	assert.NoError(t, err)

	_, err = env.svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestProvision_CreatesVerifiedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.svc.Provision(ctx, SignupInput{Username: " ops ", Email: "Ops@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ops", acc.Username)
	assert.Equal(t, "ops@example.com", acc.Email)
	assert.True(t, acc.IsVerified)

	env.mailer.mu.Lock()
	assert.Empty(t, env.mailer.sent)
	env.mailer.mu.Unlock()

	_, signedIn, err := env.svc.SignIn(ctx, "ops", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, signedIn.ID)

	_, err = env.svc.Provision(ctx, SignupInput{Username: "ops", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = env.svc.Provision(ctx, SignupInput{Username: "ops2", Email: "ops@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = env.svc.Provision(ctx, SignupInput{Username: "ops3", Email: "ops3@example.com", Password: "123"})
	assert.ErrorIs(t, err, account.ErrPasswordTooShort)
}

type noMarkVerifiedStore struct {
	*account.MemoryStore
}

func (noMarkVerifiedStore) MarkVerified(context.Context, uuid.UUID) error {
	return errors.New("write failed")
}

func TestProvision_SingleWrite(t *testing.T) {
	store := noMarkVerifiedStore{MemoryStore: account.NewMemoryStore()}
	svc := NewService(store, nil, nil, nil, logging.NewDiscardLogger(), nil, Settings{})

	acc, err := svc.Provision(context.Background(), SignupInput{Username: "ops", Email: "ops@example.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := store.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerifyCode)
}
