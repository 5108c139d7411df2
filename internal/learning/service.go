package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/metrics"
	"leadscore_backend/platform/redislock"
)

// Status is the discriminator of a training Result.
type Status string

const (
	StatusPublished        Status = "published"
	StatusInsufficientData Status = "insufficient_data"
	StatusRejected         Status = "rejected"
	StatusLocked           Status = "locked"
	StatusFailed           Status = "failed"
)

// Result reports one training run. Only StatusPublished carries a new
// model; in every other case the previously active model stays in place.
type Result struct {
	Status   Status   `json:"status"`
	Success  bool     `json:"success"`
	Model    *Model   `json:"model,omitempty"`
	Metrics  *Metrics `json:"metrics,omitempty"`
	Examples int      `json:"examples"`
	Reason   string   `json:"reason,omitempty"`
	Err      error    `json:"-"`
}

const defaultLockTTL = 2 * time.Minute

// Service runs training and manages model versions.
type Service struct {
	data    TrainingDataRepository
	models  ModelRepository
	trainer *Trainer
	locker  *redislock.Locker
	lockTTL time.Duration
	bus     events.Bus
	log     *logger.Logger
}

// NewService creates the learning service. A nil locker skips the
// cross-process training lock; publishing stays atomic in the store.
func NewService(data TrainingDataRepository, models ModelRepository, trainer *Trainer, locker *redislock.Locker, lockTTL time.Duration, bus events.Bus, log *logger.Logger) *Service {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Service{
		data:    data,
		models:  models,
		trainer: trainer,
		locker:  locker,
		lockTTL: lockTTL,
		bus:     bus,
		log:     log,
	}
}

// Train collects examples, fits and validates new weights and publishes
// them unless the regression gate rejects the model.
func (s *Service) Train(ctx context.Context, organizationID uuid.UUID) Result {
	started := time.Now()
	result := s.train(ctx, organizationID)

	version := 0
	if result.Model != nil {
		version = result.Model.Version
	}
	accuracy := 0.0
	if result.Metrics != nil {
		accuracy = result.Metrics.Accuracy
	}
	reason := result.Reason
	if result.Err != nil && reason == "" {
		reason = result.Err.Error()
	}

	metrics.ObserveTraining(string(result.Status), started, accuracy, result.Metrics != nil)
	s.log.WithContext(ctx).TrainingRun(organizationID.String(), string(result.Status), version, result.Examples, accuracy, reason)
	return result
}

func (s *Service) train(ctx context.Context, organizationID uuid.UUID) Result {
	if s.locker != nil {
		lock, err := s.locker.Acquire(ctx, "training:"+organizationID.String(), s.lockTTL)
		if errors.Is(err, redislock.ErrNotAcquired) {
			return Result{Status: StatusLocked, Reason: "training already running for organization"}
		}
		if err != nil {
			return failed(fmt.Errorf("acquire training lock: %w", err))
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("release training lock", "organization_id", organizationID, "error", err)
			}
		}()
	}

	examples, err := s.data.FetchOutcomesWithFeatures(ctx, organizationID)
	if err != nil {
		return failed(err)
	}

	prior, err := s.models.GetActiveModel(ctx, organizationID)
	hasPrior := err == nil
	if err != nil && !errors.Is(err, ErrNoActiveModel) {
		return failed(err)
	}

	initial := scoring.DefaultWeights(s.trainer.Schema())
	if hasPrior {
		initial = prior.Weights
	}

	draft, err := s.trainer.Train(examples, initial)
	if errors.Is(err, ErrInsufficientData) {
		return Result{Status: StatusInsufficientData, Examples: len(examples), Reason: err.Error(), Err: err}
	}
	if err != nil {
		return failed(err)
	}

	if ok, reason := Publishable(draft.Metrics, hasPrior); !ok {
		s.bus.Publish(ctx, events.ModelRejected{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: organizationID,
			Accuracy:       draft.Metrics.Accuracy,
			Reason:         reason,
		})
		return Result{Status: StatusRejected, Metrics: &draft.Metrics, Examples: len(examples), Reason: reason}
	}

	model, err := s.models.PublishModel(ctx, organizationID, draft)
	if err != nil {
		res := failed(err)
		res.Metrics = &draft.Metrics
		res.Examples = len(examples)
		return res
	}

	s.bus.Publish(ctx, events.ModelPublished{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
		ModelID:        model.ID,
		ModelVersion:   model.Version,
		TrainedOnCount: model.TrainedOnCount,
		Accuracy:       model.Metrics.Accuracy,
	})

	return Result{Status: StatusPublished, Success: true, Model: &model, Metrics: &model.Metrics, Examples: len(examples)}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Reason: err.Error(), Err: err}
}

// ActiveModel returns the organization's active model, or nil when none
// has been trained yet.
func (s *Service) ActiveModel(ctx context.Context, organizationID uuid.UUID) (*Model, error) {
	m, err := s.models.GetActiveModel(ctx, organizationID)
	if errors.Is(err, ErrNoActiveModel) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load active model", err)
	}
	return &m, nil
}

// ListModels returns every version, newest first.
func (s *Service) ListModels(ctx context.Context, organizationID uuid.UUID) ([]Model, error) {
	models, err := s.models.ListModels(ctx, organizationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list models", err)
	}
	if models == nil {
		models = []Model{}
	}
	return models, nil
}

// Activate rolls the organization back (or forward) to a stored version.
func (s *Service) Activate(ctx context.Context, organizationID uuid.UUID, version int) (*Model, error) {
	if version < 1 {
		return nil, apperr.Validation("model version must be positive")
	}
	m, err := s.models.ActivateVersion(ctx, organizationID, version)
	if errors.Is(err, ErrModelVersionNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("scoring model version %d not found", version))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to activate model", err)
	}

	s.bus.Publish(ctx, events.ModelActivated{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
		ModelVersion:   m.Version,
	})
	s.log.WithContext(ctx).Info("scoring model activated", "organization_id", organizationID, "model_version", m.Version)
	return &m, nil
}
