package outcomes

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadscore_backend/platform/redislock"
)

const gatePrefix = "leadscore:outcomes_since_training:"

// RetrainGate counts outcomes recorded since an organization's last
// completed training run. The count lives in redis so every replica sees it.
type RetrainGate struct {
	counter   *redislock.Counter
	threshold int64
}

// NewRetrainGate creates a gate that opens after threshold outcomes.
func NewRetrainGate(counter *redislock.Counter, threshold int) *RetrainGate {
	if threshold < 1 {
		threshold = 1
	}
	return &RetrainGate{counter: counter, threshold: int64(threshold)}
}

// NewRedisRetrainGate builds the gate on a shared redis client.
func NewRedisRetrainGate(client redis.Cmdable, threshold int) *RetrainGate {
	return NewRetrainGate(redislock.NewCounter(client, gatePrefix), threshold)
}

// Observe counts one outcome and reports whether retraining is due.
func (g *RetrainGate) Observe(ctx context.Context, organizationID uuid.UUID) (bool, error) {
	n, err := g.counter.Incr(ctx, organizationID.String())
	if err != nil {
		return false, err
	}
	return n >= g.threshold, nil
}

// Pending returns the number of outcomes since the last training run.
func (g *RetrainGate) Pending(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	return g.counter.Get(ctx, organizationID.String())
}

// Consume removes n outcomes a finished training run has seen. Outcomes
// recorded while it ran stay counted.
func (g *RetrainGate) Consume(ctx context.Context, organizationID uuid.UUID, n int64) error {
	_, err := g.counter.Take(ctx, organizationID.String(), n)
	return err
}
