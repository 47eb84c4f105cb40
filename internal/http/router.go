package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/anonify/internal/auth"
	"github.com/redmonkez12/anonify/internal/config"
	"github.com/redmonkez12/anonify/internal/httputil"
	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/messages"
	"github.com/redmonkez12/anonify/internal/metrics"
	"github.com/redmonkez12/anonify/internal/profile"
	"github.com/redmonkez12/anonify/internal/suggest"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the feature handlers mounted under /api.
type Handlers struct {
	Auth     *auth.Handler
	Messages *messages.Handler
	Profile  *profile.Handler
	Suggest  *suggest.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, store Pinger, m *metrics.Metrics, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.AuthModeHeader},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(m.Middleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth(store))
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Verification lifecycle and sessions
		r.Post("/sign-up", h.Auth.SignUp)
		r.Post("/verify-code", h.Auth.VerifyCode)
		r.Post("/resend-code", h.Auth.ResendCode)
		r.Post("/sign-in", h.Auth.SignIn)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/sign-out", h.Auth.SignOut)

		// Public lookups and anonymous intake
		r.Get("/check-username-unique", h.Profile.CheckUsernameUnique)
		r.Get("/validate-user", h.Profile.ValidateUser)
		r.Post("/send-message", h.Messages.SendMessage)
		r.Post("/suggest-messages", h.Suggest.SuggestMessages)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Get("/me", h.Profile.Me)
			r.Get("/accept-messages", h.Messages.GetAcceptStatus)
			r.Post("/accept-messages", h.Messages.SetAcceptStatus)
			r.Get("/get-messages", h.Messages.GetMessages)
			r.Delete("/delete-message/{"+messages.MessageIDParam+"}", h.Messages.DeleteMessage)
			r.Patch("/messages/{"+messages.MessageIDParam+"}/read", h.Messages.MarkRead)
			r.Put("/update-profile", h.Profile.UpdateProfile)
			r.Put("/change-password", h.Auth.ChangePassword)
			r.Delete("/delete-account", h.Profile.DeleteAccount)
		})
	})

	return r
}

// HealthResponse reports store reachability
type HealthResponse struct {
	httputil.Response
	Status string `json:"status"`
}

// handleHealth pings the store
// @Summary      Health check
// @Description  Check that the API is running and the store is reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} httputil.Response "Failed to connect to DB"
// @Router       /health [get]
func handleHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := store.Ping(ctx); err != nil {
				logger.Error("health check failed", "error", err.Error())
				httputil.RespondError(w, "Failed to connect to DB", http.StatusServiceUnavailable)
				return
			}
		}

		httputil.RespondJSON(w, HealthResponse{
			Response: httputil.Response{Success: true, Message: "Connected to DB"},
			Status:   "ok",
		}, http.StatusOK)
	}
}
