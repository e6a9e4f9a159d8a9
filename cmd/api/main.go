package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/adapter/postgres"
	"rates-service/internal/entity"
	"rates-service/internal/handler"
	"rates-service/internal/service"
	"rates-service/internal/usecase"
	"rates-service/internal/worker"
	"rates-service/pkg/config"
	"rates-service/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	log := logger.Init(cfg.Log.Level)

	log.Info("Starting app...")

	dsn := postgres.BuildDSN(*cfg)
	if err := postgres.RunMigrations(cfg.Postgres.MigrationsURL, dsn, log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	dbPool, err := postgres.InitDBPool(*cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize db pool: %v", err)
	}
	defer dbPool.Close()

	cbrClient := cbr.NewClient(cfg.CBR.BaseURL, cfg.CBRTimeout(), cfg.CBRCacheTTL(), log)
	log.Info("Initialized CBR client")

	ratesRepo := postgres.NewRatesRepo(dbPool, log)
	log.Info("Initialized database repository")

	codeChecker := service.NewCodeChecker(service.LoadISOCodes(), cbrClient, log)
	queryService := service.NewQueryService(ratesRepo, cbrClient, cfg.CBR.MaxDaysBack, log)
	ingestService := service.NewIngestService(codeChecker, ratesRepo, cbrClient, log)
	log.Info("Initialized service layer")

	backfill := worker.NewBackfill(cbrClient, ingestService, cfg.Backfill.QueueSize, cfg.BackfillBackoff(), log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	backfill.Start(workerCtx)
	log.Info("Backfill worker started")

	ratesUsecase := usecase.NewRatesUsecase(queryService, codeChecker, log)
	backfillUsecase := usecase.NewBackfillUsecase(backfill, codeChecker, log)

	ratesHandler := handler.NewRatesHandler(ratesUsecase, backfillUsecase, log)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.GET("/api/rates", ratesHandler.GetRates)
	r.POST("/api/backfill", ratesHandler.ScheduleBackfill)

	// daily refresh of today's feed
	c := cron.New()
	_, err = c.AddFunc(cfg.CBR.SyncSchedule, func() {
		log.Info("Running scheduled daily ingest...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ingestService.IngestDate(ctx, entity.Day(time.Now())); err != nil {
			log.Errorf("Scheduled ingest failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily ingest: %v", err)
	}
	c.Start()
	log.Infof("Scheduler initialized with spec %q", cfg.CBR.SyncSchedule)

	go func() {
		log.Info("Ingesting today's rates on startup...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ingestService.IngestDate(ctx, entity.Day(time.Now())); err != nil {
			log.Errorf("Startup ingest failed: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: r,
	}

	go func() {
		log.Infof("Server starting on port %s...", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Got shutdown signal...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Error server shutdown:", err)
	}
	log.Info("Server stopped")

	c.Stop()
	stopWorker()
	backfill.Wait()
	log.Info("Scheduler and worker stopped")

	log.Info("Gracefully shut down")
}
