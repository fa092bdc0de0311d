package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantry-hub/internal/config"
	"pantry-hub/internal/database"
	"pantry-hub/internal/email"
	"pantry-hub/internal/handler"
	"pantry-hub/internal/imagestore"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/productlookup"
	"pantry-hub/internal/repository"
	"pantry-hub/internal/router"
	"pantry-hub/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting pantry-hub API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, "up", logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	householdRepo := repository.NewHouseholdRepository(pool, logger)
	invitationRepo := repository.NewInvitationRepository(pool, logger)
	foodRepo := repository.NewFoodItemRepository(pool, logger)
	mealRepo := repository.NewMealRepository(pool, logger)
	listRepo := repository.NewShoppingListRepository(pool, logger)
	pantryRepo := repository.NewPantryRepository(pool, logger)

	// External collaborators
	store := newImageStore(ctx, cfg.S3, logger)
	sender := newEmailSender(ctx, cfg.Email, logger)

	products, closeProducts := newProductClient(ctx, cfg, logger)
	defer closeProducts()

	// Initialize services
	userService := service.NewUserService(userRepo, householdRepo, invitationRepo, logger)
	householdService := service.NewHouseholdService(householdRepo, userRepo, invitationRepo, pantryRepo, sender, cfg.Links, m, logger)
	productService := service.NewProductService(products, m, logger)
	foodItemService := service.NewFoodItemService(foodRepo, productService, store, m, logger)
	mealService := service.NewMealService(mealRepo, foodRepo, store, m, logger)
	shoppingListService := service.NewShoppingListService(listRepo, pantryRepo, foodRepo, logger)
	pantryService := service.NewPantryService(pantryRepo, foodRepo, cfg.Pantry.ExpiringWindowDays, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		User:         handler.NewUserHandler(userService, logger),
		Household:    handler.NewHouseholdHandler(householdService, logger),
		FoodItem:     handler.NewFoodItemHandler(foodItemService, logger),
		Meal:         handler.NewMealHandler(mealService, logger),
		ShoppingList: handler.NewShoppingListHandler(shoppingListService, logger),
		Pantry:       handler.NewPantryHandler(pantryService, logger),
		Product:      handler.NewProductHandler(productService, logger),
	}, router.Options{
		Auth:     cfg.Auth,
		Users:    userService,
		Gatherer: registry,
		Metrics:  m,
		Logger:   logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newImageStore returns the S3 store, or a store that rejects uploads when
// S3 is disabled or cannot be initialised.
func newImageStore(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) imagestore.Store {
	if !cfg.Enabled {
		logger.Info().Msg("image uploads disabled (S3 disabled)")
		return imagestore.NewDisabledStore()
	}

	store, err := imagestore.NewS3Store(ctx, cfg.Bucket, cfg.Region, cfg.Prefix, cfg.PublicBaseURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialise S3 store, image uploads disabled")
		return imagestore.NewDisabledStore()
	}
	return store
}

// newEmailSender returns the SES sender, or one that reports every send as
// failed. Invitations still work; the link is shared by hand.
func newEmailSender(ctx context.Context, cfg config.EmailConfig, logger zerolog.Logger) email.Sender {
	if !cfg.Enabled {
		logger.Info().Msg("invitation email disabled")
		return email.NewDisabledSender()
	}

	sender, err := email.NewSESSender(ctx, cfg.Region, cfg.From, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialise SES sender, invitation email disabled")
		return email.NewDisabledSender()
	}
	return sender
}

// newProductClient returns the Open Food Facts client, wrapped in the Redis
// cache when enabled. The returned func releases the cache connection.
func newProductClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (productlookup.Client, func()) {
	client := productlookup.NewOpenFoodFactsClient(
		cfg.ProductLookup.BaseURL,
		cfg.ProductLookup.UserAgent,
		cfg.ProductLookup.TimeoutDuration(),
		logger,
	)
	if !cfg.Redis.Enabled {
		return client, func() {}
	}

	rdb, err := productlookup.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to connect to redis, product lookups uncached")
		return client, func() {}
	}

	cached := productlookup.NewCachedClient(client, rdb, cfg.ProductLookup.CacheTTLDuration(), logger)
	return cached, func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
