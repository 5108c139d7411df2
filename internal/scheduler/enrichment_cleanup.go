package scheduler

import (
	"context"
	"time"

	"leadscore_backend/platform/logger"
)

const (
	defaultEnrichmentCleanupInterval = time.Hour
	defaultEnrichmentRetention       = 90 * 24 * time.Hour
)

// StaleEnrichmentDeleter removes cached enrichment rows created before cutoff.
type StaleEnrichmentDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EnrichmentCleanup periodically drops cached enrichments past retention.
type EnrichmentCleanup struct {
	repo      StaleEnrichmentDeleter
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewEnrichmentCleanup(repo StaleEnrichmentDeleter, log *logger.Logger, interval, retention time.Duration) *EnrichmentCleanup {
	if interval <= 0 {
		interval = defaultEnrichmentCleanupInterval
	}
	if retention <= 0 {
		retention = defaultEnrichmentRetention
	}

	return &EnrichmentCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *EnrichmentCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *EnrichmentCleanup) cleanup(ctx context.Context) {
	deleted, err := c.repo.DeleteOlderThan(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("enrichment cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("enrichment cleanup deleted stale rows", "deleted", deleted)
	}
}
