package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscore_backend/internal/archive"
	"leadscore_backend/internal/enrichment"
	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/http/router"
	"leadscore_backend/internal/icp"
	"leadscore_backend/internal/learning"
	"leadscore_backend/internal/outcomes"
	"leadscore_backend/internal/qualification"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/phone"
	"leadscore_backend/platform/redislock"
	"leadscore_backend/platform/validator"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	trainingLockPrefix = "leadscore:lock:"
	intakeLimitPrefix  = "leadscore:intake:"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.GetJWTAccessSecret() == "" {
		panic("JWT_ACCESS_SECRET is required")
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	retrainClient, closeScheduler := initRetrainScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()
	schema := scoring.Schema{Extended: cfg.GetScoringExtendedFeatures()}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var (
		locker *redislock.Locker
		gate   *outcomes.RetrainGate
	)
	if redisClient != nil {
		locker = redislock.NewLocker(redisClient, trainingLockPrefix)
		gate = outcomes.NewRedisRetrainGate(redisClient, cfg.GetRetrainOutcomeThreshold())
	}

	enrichmentModule, err := enrichment.NewModule(pool, cfg, log)
	if err != nil {
		log.Error("failed to initialize enrichment module", "error", err)
		panic("failed to initialize enrichment module: " + err.Error())
	}

	learningModule := learning.NewModule(pool, cfg, locker, eventBus, log)
	qualificationModule := qualification.NewModule(qualification.ModuleDeps{
		Pool:       pool,
		Criteria:   icp.NewRepository(pool),
		Enrichment: enrichmentModule.Service(),
		Models:     learningModule.Repository(),
		Schema:     schema,
		Phones:     phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		Validator:  val,
		Bus:        eventBus,
		Log:        log,
	})

	var enqueuer outcomes.RetrainEnqueuer
	if retrainClient != nil {
		enqueuer = retrainClient
	}
	outcomesModule := outcomes.NewModule(pool, gate, enqueuer, val, eventBus, log)

	initArchive(ctx, cfg, learningModule.Repository(), eventBus, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        pool,
		IntakeLimiter: intakeLimiter(cfg, redisClient),
		Modules: []apphttp.Module{
			qualificationModule,
			outcomesModule,
			learningModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; training lock, retrain gate and shared rate limits disabled")
		return nil
	}
	client, err := redislock.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return nil
	}
	return client
}

func initRetrainScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; automatic retraining disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize retrain scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initArchive(ctx context.Context, cfg config.ArchiveConfig, models archive.ModelLister, bus events.Bus, log *logger.Logger) {
	if !cfg.IsMinIOEnabled() {
		log.Info("model archive disabled: MINIO_ENDPOINT not configured")
		return
	}
	store, err := archive.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize model archive", "error", err)
		return
	}
	bucket := cfg.GetMinioBucketScoringModels()
	if err := withRetry(ctx, log, "ensure scoring-models bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		return
	}
	archive.NewArchiver(store, models, bucket, log).RegisterHandlers(bus)
	log.Info("model archive initialized", "bucket", bucket)
}

// intakeLimiter shares the intake budget across replicas when redis is
// available and falls back to per-process token buckets otherwise.
func intakeLimiter(cfg config.HTTPConfig, client *redis.Client) apphttp.IntakeLimiter {
	perSecond := cfg.GetIntakeRateLimit()
	burst := cfg.GetIntakeRateBurst()
	if perSecond <= 0 || burst <= 0 {
		return nil
	}
	if client == nil {
		return httpkit.NewIPRateLimiter(rate.Limit(perSecond), burst)
	}
	window := time.Duration(float64(burst) / perSecond * float64(time.Second))
	return redislock.NewWindowLimiter(client, intakeLimitPrefix, burst, window)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
