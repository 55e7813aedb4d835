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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/obs-timetable-api/api/swagger"
	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/handler"
	"github.com/noah-isme/obs-timetable-api/internal/middleware"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
	"github.com/noah-isme/obs-timetable-api/internal/repository"
	"github.com/noah-isme/obs-timetable-api/internal/service"
	"github.com/noah-isme/obs-timetable-api/pkg/cache"
	"github.com/noah-isme/obs-timetable-api/pkg/config"
	"github.com/noah-isme/obs-timetable-api/pkg/database"
	"github.com/noah-isme/obs-timetable-api/pkg/export"
	"github.com/noah-isme/obs-timetable-api/pkg/jobs"
	"github.com/noah-isme/obs-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/obs-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/obs-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/obs-timetable-api/pkg/storage"
)

// @title Observation Timetable API
// @version 1.0.0
// @description Builds observation timetables from candidate proposals within a date window.
// @BasePath /
// @schemes http

const sessionSweepInterval = time.Minute

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Sugar().Fatalw("database migration failed", "error", err)
	}

	var redisRepo *repository.CacheRepository
	var cacheRepo service.CacheRepository
	if cfg.Proposals.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, candidate cache disabled", "error", err)
		} else {
			redisRepo = repository.NewCacheRepository(redisClient, logr)
			defer redisRepo.Close()
			cacheRepo = redisRepo
		}
	}

	flagStyle := planner.FlagStyle(cfg.Proposals.FlagStyle)
	validate := dto.NewValidator()
	metrics := service.NewMetricsService()

	proposalRepo := repository.NewProposalRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Proposals.CacheTTL, logr, cacheRepo != nil)
	proposalSvc := service.NewProposalService(proposalRepo, cacheSvc, metrics, logr, service.ProposalServiceConfig{
		FlagStyle: flagStyle,
		CacheTTL:  cfg.Proposals.CacheTTL,
	})
	allocator := service.NewAllocationClient(service.AllocationClientConfig{
		BaseURL: cfg.Allocator.URL,
		Timeout: cfg.Allocator.Timeout,
	}, metrics, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, validate, metrics, logr, flagStyle)
	generationSvc := service.NewGenerationService(proposalSvc, allocator, timetableSvc, validate, metrics, logr, service.GenerationServiceConfig{
		SessionTTL: cfg.Sessions.TTL,
		FlagStyle:  flagStyle,
	})
	generationSvc.StartJanitor(ctx, sessionSweepInterval)

	handlers := handler.Handlers{
		Proposals:  handler.NewProposalHandler(proposalSvc),
		Generation: handler.NewGenerationHandler(generationSvc),
		Timetables: handler.NewTimetableHandler(timetableSvc, generationSvc),
	}

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportQueue, handlers.Export, err = setupExports(ctx, cfg, db, timetableSvc, validate, metrics, logr)
		if err != nil {
			logr.Sugar().Fatalw("export setup failed", "error", err)
		}
	}

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisRepo != nil {
		checks["redis"] = redisRepo.Ping
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	handlers.Metrics = metricsHandler

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers.Register(r.Group(cfg.APIPrefix))

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
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
	logr.Info("server stopped")
}

func setupExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	timetables *service.TimetableService,
	validate *validator.Validate,
	metrics *service.MetricsService,
	logr *zap.Logger,
) (*jobs.Queue, *handler.ExportHandler, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	jobRepo := repository.NewExportJobRepository(db)

	exporter := service.NewExportService(timetables, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	worker := service.NewExportWorker(jobRepo, exporter, cfg.Exports.WorkerRetries, metrics, logr)
	queue := jobs.NewQueue(service.ExportJobType, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnFailure: func(job jobs.Job, err error) {
			logr.Sugar().Errorw("export job exhausted retries", "job_id", job.ID, "error", err)
		},
	})
	queue.Start(ctx)

	jobSvc := service.NewExportJobService(jobRepo, timetables, queue, exporter, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	jobSvc.RecoverPendingJobs(ctx)
	jobSvc.StartCleanup(ctx)

	return queue, handler.NewExportHandler(jobSvc), nil
}
