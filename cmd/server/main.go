package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/voxtodo/voxtodo/internal/config"
	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/handlers"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/middleware"
	"github.com/voxtodo/voxtodo/internal/queue"
	"github.com/voxtodo/voxtodo/internal/services/ai"
	"github.com/voxtodo/voxtodo/internal/services/apple"
	"github.com/voxtodo/voxtodo/internal/services/session"
	"github.com/voxtodo/voxtodo/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.New(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "voxtodo-gateway", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	// Connect to Redis for rate limiting
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	zapLogger.Info("connected_to_redis")

	// Connect to RabbitMQ for usage recording (required)
	// Retry connection with exponential backoff to handle RabbitMQ startup delays
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var jobQueue queue.JobQueue
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			break
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	sessionRepo := database.NewSessionRepository(db)
	usageRepo := database.NewTokenUsageRepository(db)
	deviceTokenRepo := database.NewDeviceTokenRepository(db)

	// Initialize services
	appleKeys := apple.NewKeyCache()
	appleVerifier := apple.NewVerifier(appleKeys, cfg.AppleBundleID)
	appleClient := apple.NewClient(cfg.AppleBundleID, cfg.AppleClientSecret)
	tokenService := session.NewTokenService(cfg.SessionSecret)

	if cfg.OpenAIKey == "" {
		zapLogger.Fatal("openai_api_key_not_configured")
	}
	aiProvider := ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(appleVerifier, appleClient, userRepo, sessionRepo, tokenService, zapLogger)
	chatHandler := handlers.NewChatHandler(aiProvider, jobQueue, zapLogger)
	userHandler := handlers.NewUserHandler(usageRepo, deviceTokenRepo, zapLogger)
	adminHandler := handlers.NewAdminHandler(cfg.BypassPassword, usageRepo, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, jobQueue)

	// Rate limiting applied per-route
	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Setup router
	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("voxtodo-gateway"))
		zapLogger.Info("otel_middleware_enabled")
	}
	// Security headers on all responses
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// CORS for browser-based test clients
	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}
	r.Use(middleware.CORS(allowedOrigins))
	// Request body size limit
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType)
	// Panic recovery
	r.Use(middleware.ErrorHandler(zapLogger))
	// Request logging
	r.Use(middleware.Logging(zapLogger))

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/health", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.Version(version)).Methods("GET")

	authMW := middleware.Auth(tokenService, sessionRepo, userRepo, zapLogger)
	identityMW := middleware.Identity(cfg.BypassPassword, tokenService, sessionRepo, userRepo, zapLogger)
	quotaMW := middleware.Quota(usageRepo, zapLogger)

	// Sign-in: rate limited, bounded, unauthenticated
	authRouter := r.PathPrefix("").Subrouter()
	authRouter.Use(rateLimitMW)
	authRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	authHandler.RegisterRoutes(authRouter)

	// Chat: identity then quota, no request timeout so streams and slow
	// completions can run to the model's own pace
	chatRouter := r.PathPrefix("").Subrouter()
	chatRouter.Use(rateLimitMW)
	chatRouter.Use(identityMW)
	chatRouter.Use(quotaMW)
	chatHandler.RegisterRoutes(chatRouter)

	// User routes: bearer auth required
	userRouter := r.PathPrefix("").Subrouter()
	userRouter.Use(rateLimitMW)
	userRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	userRouter.Use(authMW)
	userHandler.RegisterRoutes(userRouter)

	// Admin routes: password-gated inside the handler
	adminRouter := r.PathPrefix("").Subrouter()
	adminRouter.Use(rateLimitMW)
	adminRouter.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	adminHandler.RegisterRoutes(adminRouter)

	// Setup server. WriteTimeout stays zero because /chat/stream holds the
	// response open for the full completion.
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   0,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Janitor: purge expired sessions hourly and enqueue a daily usage prune
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go runJanitor(janitorCtx, sessionRepo, jobQueue, zapLogger)

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	janitorCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// runJanitor owns the periodic cleanup work: expired session rows go
// hourly, usage pruning is delegated to the worker once a day.
func runJanitor(ctx context.Context, sessions *database.SessionRepository, jobs queue.JobQueue, zapLogger *zap.Logger) {
	sessionTicker := time.NewTicker(1 * time.Hour)
	defer sessionTicker.Stop()
	pruneTicker := time.NewTicker(24 * time.Hour)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sessionTicker.C:
			purged, err := sessions.DeleteExpired(ctx)
			if err != nil {
				zapLogger.Error("session_purge_failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				zapLogger.Info("sessions_purged", zap.Int64("rows", purged))
			}
		case <-pruneTicker.C:
			if err := jobs.Enqueue(ctx, queue.NewUsagePruneJob()); err != nil {
				zapLogger.Error("usage_prune_enqueue_failed", zap.Error(err))
			}
		}
	}
}
