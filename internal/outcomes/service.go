// Package outcomes records the ground-truth results of working leads and
// triggers retraining once enough new outcomes have accumulated.
package outcomes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/events"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/metrics"
	"leadscore_backend/platform/sanitize"
	"leadscore_backend/platform/validator"
)

// RecordOutcomeRequest is the body of an outcome submission.
type RecordOutcomeRequest struct {
	OutcomeType   string   `json:"outcome_type" validate:"required,outcome_type"`
	OutcomeValue  *float64 `json:"outcome_value" validate:"omitempty,gte=0"`
	DaysToOutcome *int     `json:"days_to_outcome" validate:"omitempty,gte=0"`
	Notes         string   `json:"notes" validate:"max=2000"`
}

// RetrainEnqueuer schedules a training run for an organization.
type RetrainEnqueuer interface {
	EnqueueRetrain(ctx context.Context, organizationID uuid.UUID) error
}

// Service records outcomes.
type Service struct {
	store    Store
	gate     *RetrainGate
	enqueuer RetrainEnqueuer
	val      *validator.Validator
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates an outcome service. Gate and enqueuer may be nil, in which
// case retraining is only triggered manually.
func New(store Store, gate *RetrainGate, enqueuer RetrainEnqueuer, val *validator.Validator, bus events.Bus, log *logger.Logger) *Service {
	if val == nil {
		val = validator.New()
	}
	return &Service{
		store:    store,
		gate:     gate,
		enqueuer: enqueuer,
		val:      val,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Record appends an outcome for a lead. The monetary value is kept only
// for conversions. Days to outcome default to the lead's age.
func (s *Service) Record(ctx context.Context, organizationID, leadID uuid.UUID, req RecordOutcomeRequest) (*Outcome, error) {
	if err := s.val.Struct(req); err != nil {
		return nil, apperr.Validation("invalid outcome").WithDetails(validator.Fields(err))
	}

	createdAt, err := s.store.LeadCreatedAt(ctx, organizationID, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	now := s.now().UTC()
	outcome := Outcome{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		LeadID:         leadID,
		OutcomeType:    strings.ToLower(strings.TrimSpace(req.OutcomeType)),
		Notes:          sanitize.Note(req.Notes),
		RecordedAt:     now,
	}
	if outcome.OutcomeType == "converted" {
		outcome.OutcomeValue = req.OutcomeValue
	}
	if req.DaysToOutcome != nil {
		outcome.DaysToOutcome = *req.DaysToOutcome
	} else {
		outcome.DaysToOutcome = daysBetween(createdAt, now)
	}

	if err := s.store.Insert(ctx, outcome); err != nil {
		s.log.WithContext(ctx).DatabaseError("insert_outcome", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to record outcome", err)
	}

	metrics.OutcomesRecorded.WithLabelValues(outcome.OutcomeType).Inc()
	s.bus.Publish(ctx, events.OutcomeRecorded{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
		LeadID:         leadID,
		OutcomeID:      outcome.ID,
		OutcomeType:    outcome.OutcomeType,
	})
	s.maybeRetrain(ctx, organizationID)

	return &outcome, nil
}

// maybeRetrain counts the outcome against the gate. Gate and queue errors
// are logged; the outcome itself is already stored.
func (s *Service) maybeRetrain(ctx context.Context, organizationID uuid.UUID) {
	if s.gate == nil || s.enqueuer == nil {
		return
	}
	log := s.log.WithContext(ctx)

	due, err := s.gate.Observe(ctx, organizationID)
	if err != nil {
		log.Warn("retrain gate unavailable", "organization_id", organizationID, "error", err)
		return
	}
	if !due {
		return
	}
	if err := s.enqueuer.EnqueueRetrain(ctx, organizationID); err != nil {
		log.Error("failed to enqueue retrain", "organization_id", organizationID, "error", err)
		return
	}
	log.Info("retrain enqueued", "organization_id", organizationID)
}

// List returns a lead's outcomes, newest first.
func (s *Service) List(ctx context.Context, organizationID, leadID uuid.UUID) ([]Outcome, error) {
	if _, err := s.store.LeadCreatedAt(ctx, organizationID, leadID); err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	items, err := s.store.List(ctx, organizationID, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list outcomes", err)
	}
	if items == nil {
		items = []Outcome{}
	}
	return items, nil
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
