package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/metrics"
)

// Enricher produces enrichment signals for a lead profile.
type Enricher interface {
	Enrich(ctx context.Context, leadID uuid.UUID, profile Profile) (*scoring.Enrichment, error)
}

// Service serves cached enrichment and refreshes it through the agent once
// the cached row is older than the TTL.
type Service struct {
	store     Store
	enricher  Enricher
	modelName string
	ttl       time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates an enrichment service. A nil enricher disables live
// enrichment; cached rows are still served.
func NewService(store Store, enricher Enricher, modelName string, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		enricher:  enricher,
		modelName: modelName,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

// Enabled reports whether live enrichment is configured.
func (s *Service) Enabled() bool {
	return s.enricher != nil
}

// ForLead returns enrichment for the lead, or nil when none is available.
// Agent failures fall back to a stale cached row and are only returned when
// nothing at all is available.
func (s *Service) ForLead(ctx context.Context, organizationID, leadID uuid.UUID, lead scoring.Lead) (*scoring.Enrichment, error) {
	cached, err := s.store.Get(ctx, organizationID, leadID)
	hasCached := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.WithContext(ctx).DatabaseError("get_enrichment", err)
	}

	if hasCached && (s.enricher == nil || s.fresh(cached)) {
		return &cached.Enrichment, nil
	}
	if s.enricher == nil {
		return nil, nil
	}

	profile := ProfileFromLead(lead)
	if profile.Empty() {
		return nil, nil
	}

	result, err := s.enricher.Enrich(ctx, leadID, profile)
	if err != nil {
		metrics.EnrichmentFailures.Inc()
		s.log.WithContext(ctx).Warn("lead enrichment failed", "lead_id", leadID, "error", err)
		if hasCached {
			return &cached.Enrichment, nil
		}
		return nil, err
	}

	if err := s.store.Save(ctx, organizationID, leadID, *result, s.modelName); err != nil {
		s.log.WithContext(ctx).DatabaseError("save_enrichment", err)
	}
	return result, nil
}

func (s *Service) fresh(rec Record) bool {
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(rec.CreatedAt) < s.ttl
}
