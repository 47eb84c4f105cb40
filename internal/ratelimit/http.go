package ratelimit

import (
	"net/http"

	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/logging"
)

// Guard applies the per-IP budget for purpose to r. It writes the 429 itself
// and reports whether the handler must stop.
func (l *Limiter) Guard(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if l.Allow(r, purpose) {
		return false
	}
	httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
	return true
}

// Allow records r against the per-IP budget for purpose and reports whether
// it is within budget. Nothing is written to the response, so callers that
// must always answer 200 can pick their own degraded reply. Backend errors
// fail open.
func (l *Limiter) Allow(r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := httputil.ClientIP(r)

	exceeded, err := l.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
		return false
	}

	if err := l.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return true
}
