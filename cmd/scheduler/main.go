package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadscore_backend/internal/archive"
	"leadscore_backend/internal/enrichment"
	"leadscore_backend/internal/events"
	"leadscore_backend/internal/learning"
	"leadscore_backend/internal/outcomes"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/redislock"
)

const trainingLockPrefix = "leadscore:lock:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	redisClient, err := redislock.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	locker := redislock.NewLocker(redisClient, trainingLockPrefix)
	learningModule := learning.NewModule(pool, cfg, locker, eventBus, log)
	gate := outcomes.NewRedisRetrainGate(redisClient, cfg.GetRetrainOutcomeThreshold())

	initArchive(ctx, cfg, learningModule.Repository(), eventBus, log)

	enrichmentCleanup := scheduler.NewEnrichmentCleanup(enrichment.NewRepository(pool), log,
		cfg.GetEnrichmentCleanupInterval(), cfg.GetEnrichmentRetention())
	go enrichmentCleanup.Run(ctx)

	processor := scheduler.NewRetrainProcessor(learningModule.Service(), gate, log)
	worker, err := scheduler.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func initArchive(ctx context.Context, cfg config.ArchiveConfig, models archive.ModelLister, bus events.Bus, log *logger.Logger) {
	if !cfg.IsMinIOEnabled() {
		return
	}
	store, err := archive.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize model archive", "error", err)
		return
	}
	bucket := cfg.GetMinioBucketScoringModels()
	if err := store.EnsureBucketExists(ctx, bucket); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		return
	}
	archive.NewArchiver(store, models, bucket, log).RegisterHandlers(bus)
}
