package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/internal/config"
	"github.com/AnshRaj112/mindsoothe-backend/internal/database"
	"github.com/AnshRaj112/mindsoothe-backend/internal/handlers"
	"github.com/AnshRaj112/mindsoothe-backend/internal/logging"
	"github.com/AnshRaj112/mindsoothe-backend/internal/middleware"
	"github.com/AnshRaj112/mindsoothe-backend/internal/routes"
	"github.com/AnshRaj112/mindsoothe-backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	var closers []func(context.Context) error
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](ctx); err != nil {
				logger.Warn("error closing resource", zap.Error(err))
			}
		}
	}()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	// Redis is optional: without it there is no history cache and no
	// shared rate limit.
	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		logger.Info("connecting to Redis")
		redisClient, err = database.ConnectRedis(cfg.RedisURI, logger)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache and shared rate limit", zap.Error(err))
			redisClient = nil
		} else {
			closers = append(closers, func(context.Context) error { return redisClient.Close() })
			store = services.NewCachedJournalStore(store, services.NewCacheService(redisClient, services.DefaultCacheTTL), logger)
		}
	}

	svcCfg := services.JournalServiceConfig{
		Store:             store,
		Logger:            logger,
		ModerationTimeout: cfg.ModerationTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		StoreTimeout:      cfg.StoreTimeout,
	}
	if cfg.AIConfigured() {
		aiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		aiCfg.BaseURL = cfg.OpenAIBaseURL
		client := openai.NewClientWithConfig(aiCfg)
		svcCfg.Moderator = services.NewOpenAIModerator(client)
		svcCfg.Reflector = services.NewOpenAIReflector(client, cfg.OpenAIModel)
		logger.Info("AI client configured", zap.String("base_url", cfg.OpenAIBaseURL), zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Warn("OPENAI_API_KEY not set, journal submissions will be rejected")
	}
	journalService := services.NewJournalService(svcCfg)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("production security enabled", zap.String("allowed_host", cfg.AllowedHost))
	}
	r.Use(middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxRequests, logger).Middleware)

	// Health check for load balancers
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, routes.Handlers{
		Journal:     handlers.NewJournalHandler(journalService, logger),
		Health:      handlers.Health(store, logger),
		SubmitLimit: middleware.SubmitRateLimit(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ModerationTimeout + cfg.GenerationTimeout + 2*cfg.StoreTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("MindSoothe backend running", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageBackend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects the configured journal backend and returns it with
// its close function.
func openStore(cfg *config.Config, logger *zap.Logger) (services.JournalStore, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.StorageBackend == config.StoragePostgres {
		logger.Info("connecting to PostgreSQL", zap.String("uri", database.MaskURI(cfg.PostgresURI)))
		db, err := database.ConnectPostgres(cfg.PostgresURI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return services.NewPostgresJournalStore(db), closeSQL(db), nil
	}

	m, err := database.Connect(cfg.MongoURI, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	store := services.NewMongoJournalStore(m.DB)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure journal indexes", zap.Error(err))
	}
	return store, m.Close, nil
}

func closeSQL(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}
