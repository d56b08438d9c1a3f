package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/app"
	cronrunner "github.com/fhrrrzy/neo-cmms-sub001/internal/cron"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/handler"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/jobs"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/logger"

	_ "github.com/fhrrrzy/neo-cmms-sub001/docs"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}
	defer a.Close()

	if err := a.Settings.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default feature switches failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue(a.Executor, a.Locks, jobs.QueueOptions{
		Workers: cfg.Jobs.Workers,
		Size:    cfg.Jobs.QueueSize,
		Tracker: a.Tracker,
	}, logger)
	queue.OnDone = func(def jobs.Definition, out jobs.Outcome) {
		logger.Info("job finished",
			zap.String("job", def.Name),
			zap.String("job_id", def.ID),
			zap.String("state", string(out.State)),
			zap.Int("attempts", out.Attempts),
			zap.Duration("elapsed", out.Duration),
		)
	}
	queue.Start(ctx)
	dispatcher := jobs.Dispatcher{Factory: a.Factory, Queue: queue}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if err := jobs.Schedule(cronRunner, cfg.Cron, dispatcher, a.Health, a.Settings, logger); err != nil {
			logger.Fatal("cron schedule failed", zap.Error(err))
		}
	} else {
		logger.Info("cron disabled")
	}
	cronRunner.Start()
	for name, next := range cronRunner.Next() {
		logger.Debug("cron next run", zap.String("job", name), zap.Time("next", next))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequestLogger(logger))

	healthHandler := &handler.HealthHandler{Checks: a.ReadyChecks()}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	syncLogHandler := &handler.SyncLogHandler{Logs: a.Logs}
	syncLogHandler.Register(engine)
	notificationHandler := &handler.NotificationHandler{Repo: a.Store}
	notificationHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Jobs: dispatcher, Status: a.Tracker, Webhook: cfg.Webhook, Logger: logger}
	syncHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Settings: a.Settings}
	settingsHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	cronRunner.Stop()
	queue.Wait()
}
