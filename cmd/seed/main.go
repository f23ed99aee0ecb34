package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/db"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/handler"
	"expensetracker/internal/logging"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
	"expensetracker/internal/service"
)

// SeedData is the demo dataset: one user and their expenses.
type SeedData struct {
	Username string                   `json:"username"`
	Password string                   `json:"password"`
	Expenses []handler.ExpenseRequest `json:"expenses"`
}

func main() {
	source := flag.String("source", "seed.json", "path or http(s) URL of the seed dataset")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StorageDriver == config.StorageMemory {
		log.Fatalf("seeding needs a persistent store; set STORAGE_DRIVER to mysql or postgres")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	gormDB, err := db.Open(cfg.StorageDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := repository.Migrate(ctx, gormDB); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// Writes go through the caching façade so a running server never
	// serves a stale expense list afterwards.
	var store cache.Store = cache.Nop{}
	if cfg.CacheDriver == config.CacheRedis {
		client, err := cache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal("redis client", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		if err := client.Connect(ctx); err != nil {
			logger.Warn("redis unavailable; cached lists expire on their own", zap.Error(err))
		}
		store = client
	}
	storage := service.NewStorage(repository.NewGormSet(gormDB), store, logger)

	logger.Info("loading seed data", zap.String("source", *source))
	data, err := loadSeedData(ctx, *source)
	if err != nil {
		logger.Fatal("load seed data", zap.Error(err))
	}

	result, err := seed(ctx, storage, data)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}

	logger.Info("seed completed",
		zap.String("username", data.Username),
		zap.Bool("user_created", result.UserCreated),
		zap.Int("expenses_created", result.Created),
		zap.Int("expenses_skipped", result.Skipped),
	)
}

// loadSeedData reads the dataset from a local file or an http(s) URL.
func loadSeedData(ctx context.Context, source string) (*SeedData, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	return decodeSeedData(r)
}

func decodeSeedData(r io.Reader) (*SeedData, error) {
	var data SeedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if data.Username == "" || data.Password == "" {
		return nil, errors.New("seed data needs a username and password")
	}
	return &data, nil
}

type seedResult struct {
	UserCreated bool
	Created     int
	Skipped     int
}

// seed creates the user when missing and adds every valid expense the user
// does not already have. An expense counts as present when date, category,
// description and amount all match.
func seed(ctx context.Context, storage service.Storage, data *SeedData) (seedResult, error) {
	var result seedResult

	user, err := storage.GetUserByUsername(ctx, data.Username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
		if err != nil {
			return result, fmt.Errorf("hash password: %w", err)
		}
		user = &model.User{Username: data.Username, Password: string(hash), Role: model.RoleUser}
		if err := storage.CreateUser(ctx, user); err != nil {
			return result, fmt.Errorf("create user %s: %w", data.Username, err)
		}
		result.UserCreated = true
	case err != nil:
		return result, fmt.Errorf("find user %s: %w", data.Username, err)
	}

	existing, err := storage.GetExpensesByOwner(ctx, user.ID)
	if err != nil {
		return result, fmt.Errorf("list expenses: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[fingerprint(e.Date, e.Category, e.Description, e.Amount)] = true
	}

	validator := handler.NewValidator()
	for i, req := range data.Expenses {
		if err := validator.Validate(&req); err != nil {
			return result, fmt.Errorf("expense %d: %w", i, err)
		}
		in := req.ToInput()
		key := fingerprint(in.Date, in.Category, in.Description, in.Amount)
		if seen[key] {
			result.Skipped++
			continue
		}
		if _, err := storage.CreateExpense(ctx, user.ID, in); err != nil {
			return result, fmt.Errorf("create expense %d: %w", i, err)
		}
		seen[key] = true
		result.Created++
	}
	return result, nil
}

func fingerprint(date model.Date, category model.Category, description string, amount model.Amount) string {
	return strings.Join([]string{date.String(), string(category), description, amount.String()}, "|")
}
