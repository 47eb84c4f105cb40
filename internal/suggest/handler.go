package suggest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

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

// SuggestRequest carries the partial message to complete
type SuggestRequest struct {
	Message string `json:"message"`
}

// SuggestMessages returns three completions joined with "||"
// @Summary      Suggest message completions
// @Description  Always answers 200 with exactly three "||"-separated completions, falling back to fixed phrases when generation fails or the caller is over its rate limit.
// @Tags         suggest
// @Accept       json
// @Produce      plain
// @Param        request body SuggestRequest true "Partial message"
// @Success      200 {string} string "completion1||completion2||completion3"
// @Failure      400 {string} string "Message is required"
// @Router       /api/suggest-messages [post]
func (h *Handler) SuggestMessages(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(r, "suggest-messages") {
		httputil.RespondText(w, Join(h.service.Throttled()), http.StatusOK)
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		httputil.RespondText(w, "Message is required", http.StatusBadRequest)
		return
	}

	httputil.RespondText(w, Join(h.service.Suggest(r.Context(), req.Message)), http.StatusOK)
}
