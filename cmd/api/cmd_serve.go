package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orders-api/internal/auth"
	"orders-api/internal/cache"
	"orders-api/internal/config"
	"orders-api/internal/database"
	"orders-api/internal/handler"
	"orders-api/internal/mail"
	"orders-api/internal/metrics"
	"orders-api/internal/model"
	"orders-api/internal/repository"
	"orders-api/internal/router"
	"orders-api/internal/service"
	"orders-api/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveMigrate bool

// orders-api serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply the schema before serving")
}

func serve(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting orders API server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if serveMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	m := metrics.New()

	files, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	combos, redisClient := newComboCache(ctx, cfg.Redis, m, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	mailer := newMailer(cfg.Mail, logger)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	// Initialize repositories
	countryRepo := repository.NewCountryRepository(pool, logger)
	stateRepo := repository.NewStateRepository(pool, logger)
	cityRepo := repository.NewCityRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewTemporalOrderRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	// Initialize services
	countryService := service.NewReferenceService[model.Country](service.EntityCountry, countryRepo, combos, logger)
	stateService := service.NewReferenceService[model.State](service.EntityState, stateRepo, combos, logger)
	cityService := service.NewReferenceService[model.City](service.EntityCity, cityRepo, combos, logger)
	categoryService := service.NewReferenceService[model.Category](service.EntityCategory, categoryRepo, combos, logger)
	productService := service.NewProductService(productRepo, files, logger)
	cartService := service.NewCartService(cartRepo, productRepo, userRepo, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, m, logger)
	accountService := service.NewAccountService(service.AccountDeps{
		Users:       userRepo,
		Tokens:      tokens,
		Hasher:      auth.NewBcryptHasher(0),
		Mailer:      mailer,
		Files:       files,
		Metrics:     m,
		FrontendURL: cfg.Server.FrontendURL,
	}, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Countries:  handler.NewReferenceHandler(service.EntityCountry, countryService, logger),
		States:     handler.NewReferenceHandler(service.EntityState, stateService, logger),
		Cities:     handler.NewReferenceHandler(service.EntityCity, cityService, logger),
		Categories: handler.NewReferenceHandler(service.EntityCategory, categoryService, logger),
		Products:   handler.NewProductHandler(productService, logger),
		Carts:      handler.NewCartHandler(cartService, logger),
		Orders:     handler.NewOrderHandler(orderService, logger),
		Accounts:   handler.NewAccountHandler(accountService, logger),
	}

	opts := router.Options{
		Tokens:            tokens,
		Metrics:           m,
		CORSAllowedOrigin: cfg.Server.CORSAllowedOrigin,
		Health:            healthCheck(pool, redisClient),
	}
	if cfg.Storage.Driver == "local" {
		opts.FilesDir = cfg.Storage.LocalDir
	}

	// Initialize router
	mux := router.New(handlers, opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("storage", cfg.Storage.Driver).
			Bool("redis", redisClient != nil).
			Bool("smtp", cfg.Mail.Enabled).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func newFileStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.FileStorage, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3Storage(ctx, cfg.S3, logger)
	}
	logger.Info().Str("dir", cfg.Storage.LocalDir).Msg("using local file system for uploaded images")
	return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.BaseURL, logger)
}

// newComboCache falls back to no caching when Redis is disabled or unreachable.
func newComboCache(ctx context.Context, cfg config.RedisConfig, m *metrics.Metrics, logger zerolog.Logger) (cache.ComboCache, *redis.Client) {
	if !cfg.Enabled {
		return cache.NewNoop(), nil
	}

	combos, client, err := cache.NewRedisCache(ctx, cfg, m, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to connect to redis, combo lists will not be cached")
		return cache.NewNoop(), nil
	}
	return combos, client
}

func newMailer(cfg config.MailConfig, logger zerolog.Logger) mail.Sender {
	if !cfg.Enabled {
		logger.Info().Msg("mail disabled, account emails will be logged")
		return mail.NewLogSender(logger)
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	}, logger)
}

func healthCheck(pool *pgxpool.Pool, client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		if client != nil {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
		}
		return nil
	}
}
