package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studysync/studysync-api/api/swagger"
	"github.com/studysync/studysync-api/internal/handler"
	"github.com/studysync/studysync-api/internal/middleware"
	"github.com/studysync/studysync-api/internal/repository"
	"github.com/studysync/studysync-api/internal/service"
	"github.com/studysync/studysync-api/pkg/cache"
	"github.com/studysync/studysync-api/pkg/config"
	"github.com/studysync/studysync-api/pkg/database"
	"github.com/studysync/studysync-api/pkg/logger"
	corsmiddleware "github.com/studysync/studysync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studysync/studysync-api/pkg/middleware/requestid"
	"github.com/studysync/studysync-api/pkg/storage"
)

// @title StudySync API
// @version 1.0.0
// @description Group scheduling and availability resolution for study groups
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cache and chat fanout degrade gracefully without redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	chatRepo := repository.NewChatRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studysync-api",
	})
	userSvc := service.NewUserService(userRepo, scheduleRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, chatRepo, cacheSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, groupRepo, cacheSvc, validate, logr, service.ScheduleConfig{
		KeepAllEventsThreshold: cfg.Imports.KeepAllEventsThreshold,
		MaxImportBytes:         cfg.Imports.MaxFileSizeBytes,
	})
	availabilitySvc := service.NewAvailabilityService(groupRepo, scheduleRepo, cacheSvc, metricsSvc, validate, logr, service.AvailabilityConfig{
		DefaultGranularityMinutes: cfg.Availability.GranularityMinutes,
		MaxRangeDays:              cfg.Availability.MaxRangeDays,
		CacheTTL:                  cfg.Availability.CacheTTL,
	})
	chatSvc := service.NewChatService(chatRepo, cacheRepo, groupSvc, validate, logr, service.ChatConfig{
		Enabled:      cfg.Chat.Enabled,
		HistoryLimit: cfg.Chat.HistoryLimit,
	})
	checklistSvc := service.NewChecklistService(checklistRepo, groupSvc, validate, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportRepo, groupSvc, availabilitySvc, exportStorage, signer, validate, logr, service.ExportServiceConfig{
		Enabled:         cfg.Exports.Enabled,
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		Workers:         cfg.Exports.WorkerConcurrency,
		Retries:         cfg.Exports.WorkerRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		User:         handler.NewUserHandler(userSvc),
		Group:        handler.NewGroupHandler(groupSvc),
		Schedule:     handler.NewScheduleHandler(scheduleSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Chat:         handler.NewChatHandler(chatSvc),
		Checklist:    handler.NewChecklistHandler(checklistSvc),
		Export:       handler.NewExportHandler(exportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
