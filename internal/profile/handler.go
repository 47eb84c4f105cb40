package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/auth"
	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateProfileRequest represents the profile update body
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ValidateUserResponse is the public lookup result for a username
type ValidateUserResponse struct {
	Recipient
	Error string `json:"error,omitempty"`
}

// ProfileResponse carries the signed-in account
type ProfileResponse struct {
	httputil.Response
	User *account.Account `json:"user"`
}

// CheckUsernameUnique reports whether a username is free
// @Summary      Check username availability
// @Description  success=false with status 200 means a verified account already holds the username.
// @Tags         profile
// @Produce      json
// @Param        username query string true "Username"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Invalid username"
// @Router       /api/check-username-unique [get]
func (h *Handler) CheckUsernameUnique(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	unique, err := h.service.CheckUsernameUnique(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		if account.IsValidationError(err) {
			httputil.RespondErrorWithCode(w, httputil.Capitalize(err.Error()), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("failed to check username", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error checking username", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if !unique {
		httputil.RespondErrorWithCode(w, "Username is already taken", httputil.CodeUsernameTaken, http.StatusOK)
		return
	}
	httputil.RespondSuccess(w, "Username is unique", http.StatusOK)
}

// ValidateUser looks up a recipient for the public send page
// @Summary      Validate recipient
// @Tags         profile
// @Produce      json
// @Param        username query string true "Username"
// @Success      200 {object} ValidateUserResponse
// @Failure      400 {object} ValidateUserResponse "Username is required"
// @Router       /api/validate-user [get]
func (h *Handler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		httputil.RespondJSON(w, ValidateUserResponse{Error: "Username is required"}, http.StatusBadRequest)
		return
	}

	recipient, err := h.service.ValidateUser(r.Context(), username)
	if err != nil {
		logger.Error("failed to validate user", "error", err.Error())
		httputil.RespondJSON(w, ValidateUserResponse{Error: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ValidateUserResponse{Recipient: *recipient}, http.StatusOK)
}

// Me returns the signed-in account
// @Summary      Current account
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	acc, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load account", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{
		Response: httputil.Response{Success: true},
		User:     acc,
	}, http.StatusOK)
}

// UpdateProfile changes username and display name
// @Summary      Update profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "New username and name"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.Response "Validation error or username taken"
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/update-profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	acc, err := h.service.UpdateProfile(r.Context(), userID, req.Username, req.Name)
	if err != nil {
		switch {
		case account.IsValidationError(err), errors.Is(err, ErrNameTooLong):
			httputil.RespondErrorWithCode(w, httputil.Capitalize(err.Error()), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrUsernameTaken):
			httputil.RespondErrorWithCode(w, "Username is already taken", httputil.CodeUsernameTaken, http.StatusBadRequest)
		case errors.Is(err, account.ErrNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("profile update failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error updating profile", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, ProfileResponse{
		Response: httputil.Response{Success: true, Message: "Profile updated successfully"},
		User:     acc,
	}, http.StatusOK)
}

// DeleteAccount removes the signed-in account
// @Summary      Delete account
// @Description  Deletes the account and its messages and revokes every session.
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Response
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/delete-account [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("account deletion failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error deleting account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	auth.ClearAuthCookies(w)
	httputil.RespondSuccess(w, "Account deleted successfully", http.StatusOK)
}
