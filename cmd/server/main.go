package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "expensetracker/docs" // swagger docs

	"expensetracker/internal/auth"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/db"
	"expensetracker/internal/handler"
	"expensetracker/internal/logging"
	"expensetracker/internal/repository"
	"expensetracker/internal/router"
	"expensetracker/internal/service"
)

const (
	localCacheItems = 100_000
	sessionSweep    = time.Minute
	shutdownTimeout = 30 * time.Second
)

// @title Expense Tracker API
// @version 1.0
// @description Personal expense tracking with monthly analytics and CSV export.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := openRecordStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	dataCache, sessionCache, err := openCaches(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if sessionCache != dataCache {
			_ = sessionCache.Close()
		}
		_ = dataCache.Close()
	}()

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sessionStore := auth.NewSessionStore(sessionCache, cfg.SessionTTL)

	// Initialize services
	storage := service.NewStorage(repos, dataCache, logger)
	authService := service.NewAuthService(storage, jwtService, sessionStore, logger)
	expenseService := service.NewExpenseService(storage, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	}, logger)
	expenseHandler := handler.NewExpenseHandler(expenseService, logger)
	analyticsHandler := handler.NewAnalyticsHandler(expenseService, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	router.Register(e, logger, jwtService, authService, authHandler, expenseHandler, analyticsHandler)

	addr := ":" + cfg.ServerPort
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("storage", cfg.StorageDriver),
			zap.String("cache", cfg.CacheDriver),
			zap.String("swagger", "http://localhost"+addr+"/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openRecordStore selects the record store named by STORAGE_DRIVER.
func openRecordStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Set, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory record store; data is lost on restart")
		return repository.NewMemorySet(), func() {}, nil
	}

	gormDB, err := db.Open(cfg.StorageDriver, cfg.DSN())
	if err != nil {
		return repository.Set{}, nil, fmt.Errorf("database init: %w", err)
	}
	closeDB := func() {
		if err := db.Close(gormDB); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := repository.Reset(ctx, gormDB); err != nil {
			closeDB()
			return repository.Set{}, nil, err
		}
	}
	if err := repository.Migrate(ctx, gormDB); err != nil {
		closeDB()
		return repository.Set{}, nil, err
	}
	return repository.NewGormSet(gormDB), closeDB, nil
}

// openCaches returns the data cache and the store that holds sessions.
// Without redis, sessions live in a TTLMap so that data-cache pressure can
// never evict them.
func openCaches(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, cache.Store, error) {
	switch cfg.CacheDriver {
	case config.CacheRedis:
		client, err := cache.New(cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Connect(ctx); err != nil {
			// Keep serving from the record store; the client reconnects
			// in the background.
			logger.Warn("redis unavailable at startup", zap.Error(err))
		}
		return client, client, nil
	case config.CacheMemory:
		local, err := cache.NewLocal(localCacheItems)
		if err != nil {
			return nil, nil, err
		}
		return local, cache.NewTTLMap(sessionSweep), nil
	default:
		return cache.Nop{}, cache.NewTTLMap(sessionSweep), nil
	}
}
