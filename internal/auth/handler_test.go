package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

func newTestHandler(t *testing.T, maxRequests int) (*Handler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryBackend(), maxRequests, time.Minute)
	return NewHandler(env.svc, limiter, false, 15*time.Minute, 24*time.Hour, time.Minute), env
}

func doJSON(t *testing.T, h http.HandlerFunc, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_SignUpVerifySignIn(t *testing.T) {
	h, env := newTestHandler(t, 100)

	rec := doJSON(t, h.SignUp, SignUpRequest{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	rec = doJSON(t, h.SignIn, SignInRequest{Identifier: "alice", Password: "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Please verify your account before logging in", decodeEnvelope(t, rec).Message)

	rec = doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "alice", Code: env.mailer.last(t).code})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.SignIn, SignInRequest{Identifier: "a@x.com", Password: "secret1"}, AuthModeHeader, "token")
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		Success      bool           `json:"success"`
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
		User         *SessionClaims `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.True(t, session.Success)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "alice", session.User.Username)
}

func TestHandler_SignInFromBrowserSetsCookies(t *testing.T) {
	h, env := newTestHandler(t, 100)
	env.signupVerified(t, "alice", "a@x.com", "secret1")

	rec := doJSON(t, h.SignIn, SignInRequest{Identifier: "alice", Password: "secret1"}, "Origin", "http://localhost:3000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "access_token")

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	assert.True(t, names[AccessTokenCookie])
	assert.True(t, names[RefreshTokenCookie])
}

func TestHandler_SignUpErrors(t *testing.T) {
	h, env := newTestHandler(t, 100)
	env.signupVerified(t, "alice", "a@x.com", "secret1")

	rec := doJSON(t, h.SignUp, SignUpRequest{Username: "alice", Email: "b@x.com", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username is already taken", decodeEnvelope(t, rec).Message)

	rec = doJSON(t, h.SignUp, SignUpRequest{Username: "bob", Email: "bad", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeValidationFailed, decodeEnvelope(t, rec).Code)

	env.mailer.err = assert.AnError
	rec = doJSON(t, h.SignUp, SignUpRequest{Username: "carol", Email: "c@x.com", Password: "secret1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "Failed to send verification email", resp.Message)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHandler_VerifyCodeErrors(t *testing.T) {
	h, env := newTestHandler(t, 100)
	env.signup(t, "alice", "a@x.com", "secret1")

	rec := doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "ghost", Code: "123456"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeEnvelope(t, rec).Message)

	code := env.mailer.last(t).code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "alice", Code: wrong})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.NotContains(t, rec.Body.String(), code)
}

func TestHandler_VerifyCodeGuessingIsCappedPerAccount(t *testing.T) {
	h, env := newTestHandler(t, 100)
	env.signup(t, "alice", "a@x.com", "secret1")
	code := env.mailer.last(t).code

	limitedCount := 0
	for i := 0; i < 200; i++ {
		// a fresh forwarded address each time keeps the per-IP budget untouched
		forwarded := fmt.Sprintf("198.51.100.%d", i%250)
		rec := doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "alice", Code: wrongCode(code)}, "X-Forwarded-For", forwarded)
		if rec.Code == http.StatusTooManyRequests {
			limitedCount++
			assert.Equal(t, httputil.CodeTooManyAttempts, decodeEnvelope(t, rec).Code)
		}
	}
	assert.Equal(t, 196, limitedCount, "everything after the fifth wrong guess is refused")

	rec := doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "alice", Code: code}, "X-Forwarded-For", "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many incorrect attempts. Please request a new code.", decodeEnvelope(t, rec).Message)

	env.now = env.now.Add(time.Minute)
	rec = doJSON(t, h.ResendCode, ResendCodeRequest{Username: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h.VerifyCode, VerifyCodeRequest{Username: "alice", Code: env.mailer.last(t).code})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ResendCooldown(t *testing.T) {
	h, env := newTestHandler(t, 100)
	env.signup(t, "alice", "a@x.com", "secret1")

	rec := doJSON(t, h.ResendCode, ResendCodeRequest{Username: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.ResendCode, ResendCodeRequest{Username: "alice"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeCooldownActive, decodeEnvelope(t, rec).Code)
}

func TestHandler_RateLimit(t *testing.T) {
	h, _ := newTestHandler(t, 2)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h.SignIn, SignInRequest{Identifier: "ghost", Password: "secret1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := doJSON(t, h.SignIn, SignInRequest{Identifier: "ghost", Password: "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddleware_RequireAuth(t *testing.T) {
	env := newTestEnv(t)
	acc := env.signupVerified(t, "alice", "a@x.com", "secret1")
	token, err := env.tokens.CreateToken(ClaimsFromAccount(acc), time.Minute)
	require.NoError(t, err)

	m := NewMiddleware(env.tokens)
	protected := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		claims, ok := GetClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, acc.ID, id)
		assert.Equal(t, "alice", claims.Username)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: http.StatusNoContent},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token}) }, status: http.StatusNoContent},
		{name: "missing", setup: func(r *http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, status: http.StatusUnauthorized},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
