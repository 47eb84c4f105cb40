package messages

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/auth"
	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

// MessageIDParam is the chi URL parameter carrying a message id.
const MessageIDParam = "messageID"

type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// SendMessageRequest is an anonymous message addressed to a username
type SendMessageRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// AcceptMessagesRequest toggles the acceptance flag
type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages"`
}

// AcceptStatusResponse carries the stored acceptance flag
type AcceptStatusResponse struct {
	httputil.Response
	Accepting bool `json:"accepting"`
}

// MessagesResponse carries the owner's inbox
type MessagesResponse struct {
	httputil.Response
	Messages []account.Message `json:"messages"`
}

// SendMessage handles anonymous message intake
// @Summary      Send an anonymous message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body SendMessageRequest true "Recipient and content"
// @Success      201 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Missing fields or content too long"
// @Failure      403 {object} httputil.Response "Recipient is not accepting messages"
// @Failure      404 {object} httputil.Response "User not found"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Router       /api/send-message [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.rateLimiter.Guard(w, r, "send-message") {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "Username and message content are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.Submit(r.Context(), req.Username, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httputil.RespondErrorWithCode(w, "Username and message content are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrContentTooLong):
			httputil.RespondErrorWithCode(w, "Message is too long", httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, account.ErrNotFound):
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrNotAccepting):
			httputil.RespondErrorWithCode(w, "User is not accepting messages at the moment", httputil.CodeNotAcceptingMessages, http.StatusForbidden)
		default:
			logger.Error("send message failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondSuccess(w, "Message sent successfully", http.StatusCreated)
}

// GetAcceptStatus returns the signed-in account's acceptance flag
// @Summary      Get message acceptance status
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} AcceptStatusResponse
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/accept-messages [get]
func (h *Handler) GetAcceptStatus(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	accepting, err := h.service.GetStatus(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get acceptance status", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error retrieving message acceptance status", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, AcceptStatusResponse{
		Response:  httputil.Response{Success: true},
		Accepting: accepting,
	}, http.StatusOK)
}

// SetAcceptStatus updates the signed-in account's acceptance flag
// @Summary      Toggle message acceptance
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AcceptMessagesRequest true "Desired flag"
// @Success      200 {object} AcceptStatusResponse
// @Failure      400 {object} httputil.Response "acceptMessages missing"
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/accept-messages [post]
func (h *Handler) SetAcceptStatus(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req AcceptMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AcceptMessages == nil {
		httputil.RespondErrorWithCode(w, "acceptMessages must be a boolean", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	stored, err := h.service.SetStatus(r.Context(), userID, *req.AcceptMessages)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "Unable to find user to update message acceptance status", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update acceptance status", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error updating message acceptance status", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, AcceptStatusResponse{
		Response:  httputil.Response{Success: true, Message: "Message acceptance status updated successfully"},
		Accepting: stored,
	}, http.StatusOK)
}

// GetMessages returns the signed-in account's inbox
// @Summary      List received messages
// @Description  Newest first
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessagesResponse
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "User not found"
// @Router       /api/get-messages [get]
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	msgs, err := h.service.List(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to list messages", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, MessagesResponse{
		Response: httputil.Response{Success: true},
		Messages: msgs,
	}, http.StatusOK)
}

// DeleteMessage removes a message from the signed-in account's inbox
// @Summary      Delete a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID path string true "Message ID"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Invalid message ID"
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "Message not found or already deleted"
// @Router       /api/delete-message/{messageID} [delete]
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, messageID, ok := h.messageTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, messageID); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			httputil.RespondErrorWithCode(w, "Message not found or already deleted", httputil.CodeMessageNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete message", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error deleting message", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondSuccess(w, "Message deleted", http.StatusOK)
}

// MarkRead flags a message as read
// @Summary      Mark a message read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID path string true "Message ID"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Invalid message ID"
// @Failure      401 {object} httputil.Response "Not authenticated"
// @Failure      404 {object} httputil.Response "Message not found"
// @Router       /api/messages/{messageID}/read [patch]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, messageID, ok := h.messageTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, messageID); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			httputil.RespondErrorWithCode(w, "Message not found", httputil.CodeMessageNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to mark message read", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Error updating message", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondSuccess(w, "Message marked as read", http.StatusOK)
}

// messageTarget resolves the caller and the message id from the route.
func (h *Handler) messageTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	messageID, err := uuid.Parse(chi.URLParam(r, MessageIDParam))
	if err != nil {
		httputil.RespondErrorWithCode(w, "Invalid message ID", httputil.CodeInvalidMessageID, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, messageID, true
}
