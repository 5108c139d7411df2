package scheduler

import (
	"context"
	"fmt"

	"leadscore_backend/internal/learning"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ModelTrainer runs one training pass for an organization.
type ModelTrainer interface {
	Train(ctx context.Context, organizationID uuid.UUID) learning.Result
}

// OutcomeGate is the per-organization count of outcomes not yet seen by a
// finished training run.
type OutcomeGate interface {
	Pending(ctx context.Context, organizationID uuid.UUID) (int64, error)
	Consume(ctx context.Context, organizationID uuid.UUID, n int64) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, retrain *RetrainProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskRetrainModel, retrain)

	return &Worker{server: server, mux: mux, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// RetrainProcessor handles scoring.model.retrain tasks.
type RetrainProcessor struct {
	trainer ModelTrainer
	gate    OutcomeGate
	log     *logger.Logger
}

func NewRetrainProcessor(trainer ModelTrainer, gate OutcomeGate, log *logger.Logger) *RetrainProcessor {
	return &RetrainProcessor{trainer: trainer, gate: gate, log: log}
}

// ProcessTask trains the organization's model. Only a failed run is
// returned as an error so asynq retries it; the other outcomes are final.
func (p *RetrainProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRetrainPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	orgID, err := payload.OrganizationUUID()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	// Outcomes recorded after this read are left for the next run.
	seen := p.pendingOutcomes(ctx, orgID)

	result := p.trainer.Train(ctx, orgID)
	p.log.Info("retrain task finished", "organization_id", orgID, "status", result.Status, "examples", result.Examples)

	switch result.Status {
	case learning.StatusPublished, learning.StatusRejected, learning.StatusInsufficientData:
		if p.gate != nil && seen > 0 {
			if err := p.gate.Consume(ctx, orgID, seen); err != nil {
				p.log.Warn("failed to consume retrain gate", "organization_id", orgID, "error", err)
			}
		}
		return nil
	case learning.StatusFailed:
		return result.Err
	default:
		return nil
	}
}

func (p *RetrainProcessor) pendingOutcomes(ctx context.Context, orgID uuid.UUID) int64 {
	if p.gate == nil {
		return 0
	}
	n, err := p.gate.Pending(ctx, orgID)
	if err != nil {
		p.log.Warn("failed to read retrain gate", "organization_id", orgID, "error", err)
		return 0
	}
	return n
}

var _ asynq.Handler = (*RetrainProcessor)(nil)
