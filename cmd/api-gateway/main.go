package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/routinez-api/api/swagger"
	"github.com/noah-isme/routinez-api/internal/catalog"
	"github.com/noah-isme/routinez-api/internal/engine"
	"github.com/noah-isme/routinez-api/internal/handler"
	"github.com/noah-isme/routinez-api/internal/middleware"
	"github.com/noah-isme/routinez-api/internal/repository"
	"github.com/noah-isme/routinez-api/internal/service"
	pkgcache "github.com/noah-isme/routinez-api/pkg/cache"
	"github.com/noah-isme/routinez-api/pkg/config"
	"github.com/noah-isme/routinez-api/pkg/database"
	"github.com/noah-isme/routinez-api/pkg/jobs"
	"github.com/noah-isme/routinez-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/routinez-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/routinez-api/pkg/middleware/requestid"
	"github.com/noah-isme/routinez-api/pkg/storage"
)

// @title Routinez API
// @version 1.0.0
// @description Class routine synthesis service: conflict-free schedule
// @description generation from the live section catalog.
// @BasePath /api
// @schemes http

const (
	jobCatalogRefresh = "catalog_refresh"
	jobExportCleanup  = "export_cleanup"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot side stores are optional; the service runs from memory
	// alone when both are disabled.
	var snapshotCache catalog.Cache
	if cfg.Redis.Enabled {
		redisClient, err := pkgcache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			snapshotCache = catalog.NewRedisCache(redisClient, cfg.Catalog.CacheTTL)
		}
	}

	var snapshotArchive catalog.Archive
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Warnw("postgres unavailable, snapshot archive disabled", "error", err)
		} else {
			defer db.Close() //nolint:errcheck
			snapshotArchive = repository.NewSnapshotRepository(db)
		}
	}

	var metrics *service.MetricsService
	if snapshotCache != nil {
		snapshotCache = catalog.InstrumentCache(snapshotCache, func(hit bool) {
			metrics.ObserveCacheHit(hit)
		})
	}

	client := catalog.NewClient(cfg.Catalog, logr)
	store := catalog.NewStore(client, snapshotCache, snapshotArchive, logr)
	metrics = service.NewMetricsService(store.Age)

	warmCtx, cancelWarm := context.WithTimeout(ctx, cfg.Catalog.FetchTimeout+10*time.Second)
	if err := store.Warm(warmCtx); err != nil {
		logr.Sugar().Warnw("catalog warm-up failed, serving degraded until refresh succeeds", "error", err)
	}
	cancelWarm()
	if snap := store.Current(); snap != nil {
		metrics.ObserveCatalogFetch(true, len(snap.Sections))
	}

	eng := engine.New(engine.Bounds{
		TimeBudget:      cfg.Engine.TimeBudget,
		MaxAccepted:     cfg.Engine.MaxAccepted,
		MaxUnproductive: cfg.Engine.MaxUnproductive,
	})

	feedbackSvc := service.NewFeedbackService(cfg.AI, logr)
	aiEnabled := feedbackSvc.Enabled()

	var routineSvc *service.RoutineService
	if aiEnabled {
		routineSvc = service.NewRoutineService(store, eng, feedbackSvc, metrics, logr)
	} else {
		routineSvc = service.NewRoutineService(store, eng, nil, metrics, logr)
	}
	catalogSvc := service.NewCatalogService(store, aiEnabled, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "dir", cfg.Exports.Dir, "error", err)
		}
		secret := cfg.Exports.SigningSecret
		if secret == "" {
			// Ephemeral secret: download links stop working across
			// restarts until one is configured.
			secret = uuid.NewString()
			logr.Warn("EXPORTS_SIGNING_SECRET is not set, using an ephemeral secret")
		}
		signer := storage.NewSignedURLSigner(secret, cfg.Exports.ResultTTL)
		exportSvc = service.NewExportService(files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.ResultTTL,
		}, logr)
	}

	maintenance := jobs.NewQueue("maintenance", func(jobCtx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobCatalogRefresh:
			err := store.Refresh(jobCtx)
			snap := store.Current()
			sections := 0
			if snap != nil {
				sections = len(snap.Sections)
			}
			metrics.ObserveCatalogFetch(err == nil, sections)
			return err
		case jobExportCleanup:
			if exportSvc == nil {
				return nil
			}
			removed, err := exportSvc.Cleanup(0)
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
			return err
		default:
			return fmt.Errorf("unknown job type %s", job.Type)
		}
	}, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: cfg.Catalog.RetryDelay, Logger: logr})
	maintenance.Start(ctx)
	defer maintenance.Stop()

	go scheduleJob(ctx, maintenance, jobCatalogRefresh, cfg.Catalog.RefreshInterval)
	if exportSvc != nil {
		go scheduleJob(ctx, maintenance, jobExportCleanup, time.Hour)
	}

	routineHandler := newRoutineHandler(routineSvc, feedbackSvc, aiEnabled)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, func() bool {
		return store.Current() != nil
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/routine", routineHandler.Generate)
		api.POST("/check-conflicts", routineHandler.CheckConflicts)
		api.POST("/routine/feedback", routineHandler.Feedback)
		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/courses/:code", catalogHandler.GetCourse)
		api.GET("/faculty", catalogHandler.ListFaculty)
		api.GET("/exam-schedule", catalogHandler.ExamSchedule)
		api.GET("/status", catalogHandler.Status)

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			api.POST("/routine/export", exportHandler.Generate)
			api.GET("/routine/export/:token", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "ai_enabled", aiEnabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

func newRoutineHandler(routines *service.RoutineService, feedback *service.FeedbackService, aiEnabled bool) *handler.RoutineHandler {
	if aiEnabled {
		return handler.NewRoutineHandler(routines, feedback)
	}
	return handler.NewRoutineHandler(routines, nil)
}

// scheduleJob enqueues the job type on a fixed interval until ctx ends.
func scheduleJob(ctx context.Context, queue *jobs.Queue, jobType string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType}); err != nil {
				return
			}
		}
	}
}
