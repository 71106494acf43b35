package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/cache"
	"github.com/paddygate/paddygate/internal/config"
	"github.com/paddygate/paddygate/internal/database"
	"github.com/paddygate/paddygate/internal/handlers"
	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/relay"
	"github.com/paddygate/paddygate/internal/repositories"
	"github.com/paddygate/paddygate/internal/routes"
	"github.com/paddygate/paddygate/internal/services"
	pkgauth "github.com/paddygate/paddygate/pkg/auth"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(os.Stdout, cfg.Server.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Optional Redis: price cache and cross-instance relay
	var redisClient *cache.Client
	var cachePinger handlers.Pinger
	var priceCache services.PriceCache
	var bridge relay.Bridge
	if cfg.Redis.Enabled() {
		redisClient = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()
		cachePinger = redisClient
		priceCache = services.NewRedisPriceCache(redisClient, cfg.Redis.PriceCacheTTL)
		bridge = relay.NewRedisBridge(redisClient.Redis(), cfg.Relay.Channel)
		logger.Info("redis enabled", slog.String("addr", cfg.Redis.Addr))
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	millRepo := repositories.NewMillRepository(db)
	priceRepo := repositories.NewPriceRepository(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	notifier, err := newNotifier(cfg.Email, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, auth.DefaultTimingDelay(), cfg.Auth.AllowAdminSignup, logger, auditLogger)
	millService := services.NewMillService(millRepo, priceCache, logger)
	priceService := services.NewPriceService(priceRepo, millRepo, priceCache, logger)
	adminService := services.NewAdminService(userRepo, millRepo, notifier, logger, auditLogger)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, cfg.Admin, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	hub := relay.NewHub(relay.Options{
		SendBuffer:      cfg.Relay.SendBuffer,
		MaxMessageBytes: cfg.Relay.MaxMessageBytes,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Bridge:          bridge,
	}, logger)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	router := routes.NewRouter(routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService),
		Mills:  handlers.NewMillHandler(millService),
		Prices: handlers.NewPriceHandler(priceService),
		Admin:  handlers.NewAdminHandler(adminService),
		Health: handlers.NewHealthHandler(db, cachePinger),
		Relay:  hub.ServeWS,
	}, tokenManager, userRepo, routes.Options{
		Env:                    cfg.Server.Env,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		AuthRateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
		IPConfig:               &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies},
	}, logger)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	// Hijacked websocket connections are not tracked by Shutdown.
	hubCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newNotifier sends status emails through SES when a sender address is
// configured and only logs them otherwise.
func newNotifier(cfg config.EmailConfig, logger *slog.Logger) (services.Notifier, error) {
	if cfg.FromAddress == "" {
		logger.Info("EMAIL_FROM_ADDRESS not set, status notifications will be logged")
		return services.NewLogNotifier(logger), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return services.NewSESNotifier(ctx, cfg.AWSRegion, cfg.FromAddress, cfg.BaseURL, logger)
}

// ensureAdminUser creates an active administrator from ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD unless that email is already registered.
func ensureAdminUser(ctx context.Context, cfg config.AdminConfig, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	if !cfg.Enabled() {
		logger.Info("admin bootstrap not configured, skipping admin user creation")
		return nil
	}

	email := services.NormalizeEmail(cfg.Email)
	_, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(cfg.Password); err != nil {
		return fmt.Errorf("invalid ADMIN_PASSWORD: %w", err)
	}
	hashedPassword, err := pkgauth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = userRepo.Create(ctx, &models.User{
		Username:      cfg.Username,
		Email:         email,
		PasswordHash:  hashedPassword,
		Role:          models.RoleAdmin,
		Profile:       models.Profile{Name: "Admin"},
		AccountStatus: models.AccountActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
