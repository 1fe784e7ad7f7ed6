package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/mindwell-app/mindwell-api/internal/auth"
	"github.com/mindwell-app/mindwell-api/internal/config"
	"github.com/mindwell-app/mindwell-api/internal/database"
	"github.com/mindwell-app/mindwell-api/internal/email"
	httpServer "github.com/mindwell-app/mindwell-api/internal/http"
	"github.com/mindwell-app/mindwell-api/internal/logging"
	"github.com/mindwell-app/mindwell-api/internal/ratelimit"
	"github.com/mindwell-app/mindwell-api/internal/user"
)

// @title           MindWell API
// @version         1.0
// @description     Authentication service for the MindWell mobile application.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

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
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories and stores
	userRepo := user.NewRepository(db)
	sessionStore := auth.NewRedisSessionStore(redisClient)
	secretStore := auth.NewRedisSecretStore(redisClient)

	// Rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Token service (PASETO by default, JWT optional)
	tokenService, err := auth.NewTokenService(cfg.Auth.TokenProvider, cfg.Auth.TokenSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Email notifier
	notifier := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.FrontendURL,
	)

	// Auth service
	authService := auth.NewService(
		userRepo,
		sessionStore,
		secretStore,
		secretStore,
		tokenService,
		notifier,
		logger,
		auth.ServiceConfig{
			SessionTTL:          cfg.Auth.SessionDuration,
			GuestSessionTTL:     cfg.Auth.GuestSessionDuration,
			VerificationCodeTTL: cfg.Auth.VerificationCodeTTL,
			ResetTokenTTL:       cfg.Auth.ResetTokenTTL,
		},
	)

	// HTTP layer
	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(tokenService, sessionStore)
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
