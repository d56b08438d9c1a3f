// Package app builds the object graph shared by the server and the console
// commands.
package app

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/cache"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/db"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/jobs"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/notification"
	gormrepository "github.com/fhrrrzy/neo-cmms-sub001/internal/repository/gorm"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	DB       *db.DB
	Store    *gormrepository.Store
	Locks    cache.Store
	Notifier *notification.Dispatcher
	Logs     *service.SyncLogService
	Sync     *service.SyncService
	Health   *service.HealthService
	Settings *service.SettingsService
	Executor *jobs.Executor
	Factory  jobs.Factory
	Tracker  *jobs.Tracker

	redis *cache.RedisStore
}

// LoadConfig reads CMMS_CONFIG (default config/config.yaml). CMMS_ENV_ONLY
// skips the file and takes everything from the environment.
func LoadConfig() (config.Config, error) {
	cfgPath := os.Getenv("CMMS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("CMMS_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	return config.Load(cfgPath, envOnly)
}

// New opens the database, migrates it and wires every service.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		logger.Warn("unknown sync timezone, using UTC", zap.String("timezone", cfg.Sync.Timezone), zap.Error(err))
		loc = time.UTC
	}

	store := gormrepository.New(dbConn.Gorm)
	client := remote.NewClient(&http.Client{Timeout: cfg.Remote.Timeout}, remote.Options{
		BaseURL:         cfg.Remote.BaseURL,
		Token:           cfg.Remote.Token,
		MaxPages:        cfg.Remote.MaxPages,
		RateLimit:       cfg.Remote.RateLimit,
		BreakerFailures: cfg.Remote.BreakerFailures,
		BreakerTimeout:  cfg.Remote.BreakerTimeout,
		Logger:          logger,
	})
	fetcher := &remote.Fetcher{
		Client:      client,
		BatchSize:   cfg.Remote.BatchSize,
		Concurrency: cfg.Remote.Concurrency,
		Logger:      logger,
	}

	notifier := notification.NewDispatcher(cfg.Notification, store, logger)
	logs := &service.SyncLogService{Repo: store, Logger: logger, MaxFailureDetails: cfg.Sync.MaxFailureDetails}
	syncSvc := &service.SyncService{
		Repo:                  store,
		Sources:               service.NewSources(fetcher, cfg.Remote.Endpoints),
		Logs:                  logs,
		Logger:                logger,
		Location:              loc,
		WorkOrderLookbackDays: cfg.Sync.WorkOrderLookbackDays,
		RegionalCodes:         cfg.Sync.RegionalCodes,
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       dbConn,
		Store:    store,
		Notifier: notifier,
		Logs:     logs,
		Sync:     syncSvc,
		Health: &service.HealthService{
			Repo:       store,
			Notifier:   notifier,
			Logger:     logger,
			StuckAfter: cfg.Sync.StuckAfter,
			Retention:  cfg.Sync.LogRetention,
		},
		Settings: &service.SettingsService{Repo: store, Logger: logger},
		Executor: &jobs.Executor{
			Syncer:   syncSvc,
			Logs:     logs,
			Notifier: notifier,
			Logger:   logger,
		},
		Factory: jobs.Factory{
			MaxAttempts: cfg.Jobs.MaxAttempts,
			TargetDate:  syncSvc.TargetDate,
		},
	}

	a.Tracker = jobs.NewTracker(24 * time.Hour)
	a.Executor.Tracker = a.Tracker

	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		a.redis = cache.NewRedisStore(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, "cmms:")
		a.Locks = a.redis
	} else {
		a.Locks = cache.NewMemoryStore()
	}
	return a, nil
}

// ReadyChecks pings the database and, when configured, redis.
func (a *App) ReadyChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"db": func(ctx context.Context) error { return db.Ping(ctx, a.DB) },
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}
	return checks
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := db.Close(a.DB); err != nil {
		a.Logger.Warn("db close failed", zap.Error(err))
	}
}
