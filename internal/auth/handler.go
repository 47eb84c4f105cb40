package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

const resendCooldownScope = "resend-code"

// Handler contains HTTP handlers for the verification lifecycle and sessions
type Handler struct {
	service         *Service
	rateLimiter     *ratelimit.Limiter
	isProduction    bool
	accessDuration  time.Duration
	refreshDuration time.Duration
	resendCooldown  time.Duration
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, isProduction bool, accessDuration, refreshDuration, resendCooldown time.Duration) *Handler {
	return &Handler{
		service:         service,
		rateLimiter:     rateLimiter,
		isProduction:    isProduction,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		resendCooldown:  resendCooldown,
	}
}

// SignUpRequest represents the sign-up request body
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyCodeRequest represents the verification request body
type VerifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// ResendCodeRequest represents the resend request body
type ResendCodeRequest struct {
	Username string `json:"username"`
}

// SignInRequest accepts either an email or a username as identifier
type SignInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SessionResponse is returned by sign-in and refresh. Tokens are present only
// for clients that do not use cookies.
type SessionResponse struct {
	httputil.Response
	User *SessionClaims `json:"user,omitempty"`
	*AuthTokens
}

// SignUp handles account registration
// @Summary      Sign up
// @Description  Create a pending account and email it a 6-digit verification code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignUpRequest true "Sign-up form"
// @Success      201 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Validation error, username or email taken"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Failure      500 {object} httputil.Response "Verification email could not be sent"
// @Router       /api/sign-up [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "sign-up") {
		return
	}

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid sign-up request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Missing required fields", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	acc, err := h.service.Signup(r.Context(), SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case account.IsValidationError(err):
			logger.Warn("sign-up failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, httputil.Capitalize(err.Error()), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrUsernameTaken):
			logger.Warn("sign-up failed: username taken")
			httputil.RespondErrorWithCode(w, "Username is already taken", httputil.CodeUsernameTaken, http.StatusBadRequest)
		case errors.Is(err, ErrEmailTaken):
			logger.Warn("sign-up failed: email taken")
			httputil.RespondErrorWithCode(w, "User already exists with this email", httputil.CodeEmailTaken, http.StatusBadRequest)
		case errors.Is(err, ErrEmailSendFailed):
			httputil.RespondErrorWithCode(w, "Failed to send verification email", httputil.CodeEmailSendFailed, http.StatusInternalServerError)
		default:
			logger.Error("sign-up failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error registering user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account registered", "user_id", acc.ID)
	httputil.RespondSuccess(w, "User registered successfully. Please verify your account.", http.StatusCreated)
}

// VerifyCode handles verification-code submission
// @Summary      Verify account
// @Description  Check the emailed code and mark the account verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyCodeRequest true "Username and code"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Wrong or expired code, or already verified"
// @Failure      404 {object} httputil.Response "User not found"
// @Failure      429 {object} httputil.Response "Code burned after too many wrong guesses"
// @Router       /api/verify-code [post]
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "verify-code") {
		return
	}

	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Code == "" {
		httputil.RespondErrorWithCode(w, "Username and code are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.VerifyCode(r.Context(), req.Username, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyVerified):
			httputil.RespondErrorWithCode(w, "User is already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
		case errors.Is(err, ErrCodeExpired):
			httputil.RespondErrorWithCode(w, "Verification code has expired. Please request a new code.", httputil.CodeCodeExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCode):
			logger.Warn("verification failed: incorrect code")
			httputil.RespondErrorWithCode(w, "Incorrect verification code", httputil.CodeInvalidCode, http.StatusBadRequest)
		case errors.Is(err, ErrTooManyAttempts):
			logger.Warn("verification failed: too many attempts")
			httputil.RespondErrorWithCode(w, "Too many incorrect attempts. Please request a new code.", httputil.CodeTooManyAttempts, http.StatusTooManyRequests)
		default:
			logger.Error("verification failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error verifying user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("account verified")
	httputil.RespondSuccess(w, "Account verified successfully", http.StatusOK)
}

// ResendCode handles verification-code resend
// @Summary      Resend verification code
// @Description  Issue a fresh code with a shorter expiry and email it again.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendCodeRequest true "Username"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Already verified"
// @Failure      404 {object} httputil.Response "User not found"
// @Failure      429 {object} httputil.Response "Cooldown active"
// @Router       /api/resend-code [post]
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "resend-code") {
		return
	}

	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		httputil.RespondErrorWithCode(w, "Username is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)

	onCooldown, err := h.rateLimiter.CheckCooldown(r.Context(), resendCooldownScope, username)
	if err != nil {
		logger.Error("failed to check resend cooldown", "error", err.Error())
	} else if onCooldown {
		httputil.RespondErrorWithCode(w, "Please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.service.ResendCode(r.Context(), username); err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyVerified):
			httputil.RespondErrorWithCode(w, "User is already verified", httputil.CodeAlreadyVerified, http.StatusBadRequest)
		default:
			logger.Error("resend failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Failed to resend verification code", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if err := h.rateLimiter.SetCooldown(r.Context(), resendCooldownScope, username, h.resendCooldown); err != nil {
		logger.Error("failed to set resend cooldown", "error", err.Error())
	}

	httputil.RespondSuccess(w, "Verification code resent successfully", http.StatusOK)
}

// SignIn handles credential sign-in
// @Summary      Sign in
// @Description  Authenticate with email or username. Browsers receive HttpOnly cookies, other clients receive tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.Response "Missing fields"
// @Failure      401 {object} httputil.Response "Invalid credentials"
// @Failure      403 {object} httputil.Response "Account not verified"
// @Router       /api/sign-in [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limited(w, r, "sign-in") {
		return
	}

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" || req.Password == "" {
		httputil.RespondErrorWithCode(w, "Email/Username and password are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	tokens, acc, err := h.service.SignIn(r.Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("sign-in failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrAccountNotVerified):
			logger.Warn("sign-in failed: account not verified")
			httputil.RespondErrorWithCode(w, "Please verify your account before logging in", httputil.CodeAccountNotVerified, http.StatusForbidden)
		default:
			logger.Error("sign-in failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Failed to sign in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("signed in", "user_id", acc.ID)
	claims := ClaimsFromAccount(acc)
	h.respondSession(w, r, tokens, &claims, "Signed in successfully")
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Description  Rotate a refresh token (body or cookie) and issue a new access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.Response "Refresh token missing"
// @Failure      401 {object} httputil.Response "Invalid or expired refresh token"
// @Router       /api/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	refreshToken := h.refreshTokenFromRequest(r)
	if refreshToken == "" {
		httputil.RespondErrorWithCode(w, "Refresh token required", httputil.CodeRefreshTokenRequired, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRefreshTokenRevoked) || errors.Is(err, ErrRefreshTokenExpired) {
			logger.Warn("token refresh failed: invalid or expired token", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Invalid or expired refresh token", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	h.respondSession(w, r, tokens, nil, "Token refreshed successfully")
}

// SignOut handles sign-out
// @Summary      Sign out
// @Description  Revoke the refresh token and clear auth cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Optional refresh token"
// @Success      200 {object} httputil.Response
// @Router       /api/sign-out [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if refreshToken := h.refreshTokenFromRequest(r); refreshToken != "" {
		if err := h.service.SignOut(r.Context(), refreshToken); err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
			logger.Warn("failed to revoke refresh token", "error", err)
		}
	}

	ClearAuthCookies(w)
	httputil.RespondSuccess(w, "Signed out", http.StatusOK)
}

// ChangePassword handles password change for the signed-in account
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Validation error or wrong current password"
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/change-password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" {
		httputil.RespondErrorWithCode(w, "Current and new password are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case account.IsValidationError(err):
			httputil.RespondErrorWithCode(w, httputil.Capitalize(err.Error()), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, account.ErrNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrIncorrectPassword):
			logger.Warn("password change failed: incorrect current password", "user_id", userID)
			httputil.RespondErrorWithCode(w, "Current password is incorrect", httputil.CodeIncorrectPassword, http.StatusBadRequest)
		default:
			logger.Error("password change failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error changing password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password changed", "user_id", userID)
	ClearAuthCookies(w)
	httputil.RespondSuccess(w, "Password changed successfully", http.StatusOK)
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, tokens *AuthTokens, user *SessionClaims, message string) {
	resp := SessionResponse{
		Response: httputil.Response{Success: true, Message: message},
		User:     user,
	}
	if ShouldUseCookies(r) {
		SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, h.isProduction, h.accessDuration, h.refreshDuration)
	} else {
		resp.AuthTokens = tokens
	}
	httputil.RespondJSON(w, resp, http.StatusOK)
}

// refreshTokenFromRequest reads the token from the JSON body, falling back
// to the refresh cookie.
func (h *Handler) refreshTokenFromRequest(r *http.Request) string {
	var req RefreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		return token
	}
	token, _ := GetRefreshTokenFromCookie(r)
	return token
}

// limited applies the per-IP budget for purpose and reports whether the
// request was rejected.
func (h *Handler) limited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	return h.rateLimiter.Guard(w, r, purpose)
}
