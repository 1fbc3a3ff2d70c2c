package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"civicwatch/config"
	"civicwatch/enrich"
	"civicwatch/fetch"
	"civicwatch/services"
	"civicwatch/sources"
	"civicwatch/storage"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := storage.Migrate(db); err != nil {
		logging.Fatal("Failed to migrate database", zap.Error(err))
	}
	logging.Info("Database connection established and migrated")

	// Quellenkatalog, optional ergänzt durch SOURCES_FILE
	registry := sources.Default()
	if cfg.SourcesFile != "" {
		overrides, err := sources.LoadOverrides(cfg.SourcesFile)
		if err != nil {
			logging.Fatal("Failed to read sources file", zap.String("path", cfg.SourcesFile), zap.Error(err))
		}
		if registry, err = registry.Apply(overrides); err != nil {
			logging.Fatal("Invalid sources file", zap.String("path", cfg.SourcesFile), zap.Error(err))
		}
	}
	logging.Info("Source registry loaded",
		zap.Int("government", len(registry.Government())), zap.Int("news", len(registry.News())))

	// Setup Services
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	writer := storage.NewWriter(db, logging)
	fetcher := fetch.New(cfg.UserAgent, cfg.FetchTimeout)
	retry := fetch.Policy{MaxAttempts: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay}

	var archiver services.Archiver
	if cfg.ArchiveEnabled() {
		s3Archiver, err := storage.NewArchiver(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archiver = s3Archiver
		logging.Info("Raw page archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	classifier := enrich.NewClassifier(enrich.NewOpenRouter(cfg.LLMAPIKey, cfg.LLMModel), logging, cfg.LLMMaxInputChars, cfg.LLMCallDelay)
	trust := services.NewTrustScorer(writer, logging)

	a := &app{
		ctx:        ctx,
		registry:   registry,
		writer:     writer,
		orch:       services.NewOrchestrator(registry, fetcher, retry, writer, archiver, metrics, logging),
		news:       services.NewNewsService(registry, fetcher, retry, writer, archiver, classifier, metrics, logging),
		enrichment: services.NewEnrichmentService(writer, classifier, cfg.EnrichmentBatchSize, metrics, logging),
		aggregator: services.NewAggregator(writer, trust, logging),
		health:     services.NewHealthProbe(writer, metrics, logging),
		log:        logging,
	}
	a.news.SetClassifyDelay(cfg.LLMCallDelay)

	// Setup Cron
	scheduler := services.NewScheduler(metrics, logging)
	jobs := []struct {
		name, spec string
		run        services.JobFunc
	}{
		{"government", cfg.GovernmentSchedule, func(ctx context.Context) error {
			_, err := a.orch.RunTier(ctx, sources.TierFrequent)
			return err
		}},
		{"government-daily", cfg.DailyTierSchedule, func(ctx context.Context) error {
			_, err := a.orch.RunTier(ctx, sources.TierDaily)
			return err
		}},
		{"government-weekly", cfg.WeeklyTierSchedule, func(ctx context.Context) error {
			_, err := a.orch.RunTier(ctx, sources.TierWeekly)
			return err
		}},
		{"news", cfg.NewsSchedule, func(ctx context.Context) error {
			_, err := a.news.Run(ctx)
			return err
		}},
		{"enrichment", cfg.EnrichmentSchedule, func(ctx context.Context) error {
			_, err := a.enrichment.Sweep(ctx)
			return err
		}},
		{"analytics", cfg.AnalyticsSchedule, func(ctx context.Context) error {
			_, err := a.aggregator.Recompute(ctx)
			return err
		}},
		{"health", cfg.HealthSchedule, func(ctx context.Context) error {
			if st := a.health.Check(ctx); !st.StoreUp {
				return errors.New(st.Error)
			}
			return nil
		}},
	}
	for _, job := range jobs {
		if err := scheduler.Add(job.name, job.spec, job.run); err != nil {
			logging.Fatal("Invalid schedule", zap.Error(err))
		}
	}
	scheduler.Start(cfg.StartupDelay, "startup", func(ctx context.Context) error {
		_, err := a.orch.RunOnce(ctx)
		return err
	})

	router := newRouter(cfg, a, prometheus.DefaultGatherer)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logging.Error("Scheduler did not stop in time", zap.Error(err))
	}
}
