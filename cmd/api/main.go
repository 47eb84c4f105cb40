package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/redmonkez12/anonify/docs" // Swagger docs
	"github.com/redmonkez12/anonify/internal/account"
	"github.com/redmonkez12/anonify/internal/auth"
	"github.com/redmonkez12/anonify/internal/config"
	"github.com/redmonkez12/anonify/internal/database"
	"github.com/redmonkez12/anonify/internal/email"
	httpServer "github.com/redmonkez12/anonify/internal/http"
	"github.com/redmonkez12/anonify/internal/jobs"
	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/messages"
	"github.com/redmonkez12/anonify/internal/metrics"
	"github.com/redmonkez12/anonify/internal/profile"
	"github.com/redmonkez12/anonify/internal/ratelimit"
	"github.com/redmonkez12/anonify/internal/suggest"
)

// @title           Anonify API
// @version         1.0
// @description     Anonymous feedback service: verified accounts receive anonymous messages and can toggle acceptance.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize account store
	store, pinger, closeStore, err := initStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	// Initialize refresh-token store and rate limiter backend
	var (
		refreshTokens auth.RefreshTokenRepository
		limiterStore  ratelimit.Backend
	)
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		refreshTokens = auth.NewRedisRepository(redisClient)
		limiterStore = ratelimit.NewRedisBackend(redisClient)
	} else {
		logger.Warn("redis disabled, sessions and rate limits are kept in memory")
		refreshTokens = auth.NewMemoryRepository()
		limiterStore = ratelimit.NewMemoryBackend()
	}
	rateLimiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService := email.NewService(cfg.Email)

	// Initialize services
	authService := auth.NewService(
		store,
		refreshTokens,
		tokenService,
		emailService,
		logger,
		m,
		auth.Settings{
			SignupTTL:            cfg.Verification.SignupTTL,
			ResendTTL:            cfg.Verification.ResendTTL,
			EnforceExpiry:        cfg.Verification.EnforceExpiry,
			AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
			RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
			MaxVerifyAttempts:    cfg.Verification.MaxAttempts,
		},
	)
	authService.TrackVerifyAttempts(limiterStore)
	messageService := messages.NewService(store, logger, m, cfg.Messages.MaxLength)
	profileService := profile.NewService(store, authService, logger)
	suggestService := suggest.NewService(
		suggest.NewGeminiGenerator(cfg.Suggest.GeminiAPIKey, cfg.Suggest.Model),
		suggest.NewProcessor(),
		cfg.Suggest.Timeout,
		logger,
		m,
	)
	if cfg.Suggest.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, suggestions will use the fallback set")
	}

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth: auth.NewHandler(
			authService,
			rateLimiter,
			!cfg.Server.IsDevelopment(), // isProduction
			cfg.Auth.AccessTokenDuration,
			cfg.Auth.RefreshTokenDuration,
			cfg.Verification.ResendCooldown,
		),
		Messages: messages.NewHandler(messageService, rateLimiter),
		Profile:  profile.NewHandler(profileService),
		Suggest:  suggest.NewHandler(suggestService, rateLimiter),
	}
	authMiddleware := auth.NewMiddleware(tokenService)

	router := httpServer.NewRouter(cfg, handlers, authMiddleware, pinger, m, logger)
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Background jobs
	scheduler := jobs.NewScheduler(logger)
	if cfg.Jobs.PurgeUnverifiedCron != "" {
		purge := jobs.NewPurgeUnverifiedJob(store, cfg.Jobs.PurgeUnverifiedAfter, logger, m)
		if err := scheduler.Add("purge-unverified", cfg.Jobs.PurgeUnverifiedCron, purge); err != nil {
			return err
		}
	}
	scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// initStore opens the configured account store. For postgres it returns the
// connector as the health pinger and applies migrations when enabled.
func initStore(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (account.Store, httpServer.Pinger, func(), error) {
	if cfg.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory account store, data is lost on restart")
		return account.NewMemoryStore(), nil, func() {}, nil
	}

	connector := database.NewPostgresConnector(cfg)
	db, err := connector.DB(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := connector.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	return account.NewRepository(db), connector, closeFn, nil
}

func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatJWT {
		return auth.NewJWTService(cfg.JWTSecret)
	}
	return auth.NewPasetoService(cfg.PasetoKey)
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
