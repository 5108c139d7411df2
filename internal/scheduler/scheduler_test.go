package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadscore_backend/internal/learning"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	if r.err != nil {
		return nil, r.err
	}
	return &asynq.TaskInfo{}, nil
}

func (r *recordingEnqueuer) Close() error { return nil }

func optionValue(opts []asynq.Option, typ asynq.OptionType) (interface{}, bool) {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value(), true
		}
	}
	return nil, false
}

func TestEnqueueRetrain(t *testing.T) {
	rec := &recordingEnqueuer{}
	c := &Client{client: rec, queue: "scoring"}
	orgID := uuid.New()

	require.NoError(t, c.EnqueueRetrain(context.Background(), orgID))
	require.Len(t, rec.tasks, 1)
	assert.Equal(t, TaskRetrainModel, rec.tasks[0].Type())

	payload, err := ParseRetrainPayload(rec.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, orgID.String(), payload.OrganizationID)

	id, ok := optionValue(rec.opts[0], asynq.TaskIDOpt)
	require.True(t, ok)
	assert.Equal(t, "retrain:"+orgID.String(), id)

	retry, ok := optionValue(rec.opts[0], asynq.MaxRetryOpt)
	require.True(t, ok)
	assert.Equal(t, 3, retry)

	queue, ok := optionValue(rec.opts[0], asynq.QueueOpt)
	require.True(t, ok)
	assert.Equal(t, "scoring", queue)
}

func TestEnqueueRetrain_ConflictIsNotAnError(t *testing.T) {
	c := &Client{client: &recordingEnqueuer{err: asynq.ErrTaskIDConflict}, queue: "default"}
	assert.NoError(t, c.EnqueueRetrain(context.Background(), uuid.New()))

	c = &Client{client: &recordingEnqueuer{err: errors.New("redis down")}, queue: "default"}
	assert.Error(t, c.EnqueueRetrain(context.Background(), uuid.New()))
}

func TestEnqueueRetrain_NilClient(t *testing.T) {
	var c *Client
	assert.NoError(t, c.EnqueueRetrain(context.Background(), uuid.New()))
}

type stubTrainer struct {
	result  learning.Result
	calls   []uuid.UUID
	onTrain func()
}

func (s *stubTrainer) Train(_ context.Context, orgID uuid.UUID) learning.Result {
	s.calls = append(s.calls, orgID)
	if s.onTrain != nil {
		s.onTrain()
	}
	return s.result
}

type countingGate struct {
	pending  int64
	consumed []int64
}

func (g *countingGate) Pending(context.Context, uuid.UUID) (int64, error) {
	return g.pending, nil
}

func (g *countingGate) Consume(_ context.Context, _ uuid.UUID, n int64) error {
	g.consumed = append(g.consumed, n)
	g.pending = max(0, g.pending-n)
	return nil
}

func retrainTask(t *testing.T, orgID string) *asynq.Task {
	t.Helper()
	task, err := NewRetrainTask(RetrainPayload{OrganizationID: orgID})
	require.NoError(t, err)
	return task
}

func TestRetrainProcessor(t *testing.T) {
	boom := errors.New("db down")
	cases := []struct {
		status    learning.Status
		err       error
		wantConsume bool
		wantErr   bool
	}{
		{status: learning.StatusPublished, wantConsume: true},
		{status: learning.StatusRejected, wantConsume: true},
		{status: learning.StatusInsufficientData, wantConsume: true},
		{status: learning.StatusLocked},
		{status: learning.StatusFailed, err: boom, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			trainer := &stubTrainer{result: learning.Result{Status: tc.status, Err: tc.err}}
			gate := &countingGate{pending: 4}
			p := NewRetrainProcessor(trainer, gate, logger.Discard())
			orgID := uuid.New()

			err := p.ProcessTask(context.Background(), retrainTask(t, orgID.String()))
			if tc.wantErr {
				assert.ErrorIs(t, err, boom)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []uuid.UUID{orgID}, trainer.calls)
			if tc.wantConsume {
				assert.Equal(t, []int64{4}, gate.consumed)
				assert.Zero(t, gate.pending)
			} else {
				assert.Empty(t, gate.consumed)
				assert.Equal(t, int64(4), gate.pending)
			}
		})
	}
}

func TestRetrainProcessor_KeepsOutcomesRecordedDuringTraining(t *testing.T) {
	gate := &countingGate{pending: 5}
	trainer := &stubTrainer{result: learning.Result{Status: learning.StatusPublished}}
	trainer.onTrain = func() { gate.pending += 2 }
	p := NewRetrainProcessor(trainer, gate, logger.Discard())

	err := p.ProcessTask(context.Background(), retrainTask(t, uuid.NewString()))

	require.NoError(t, err)
	assert.Equal(t, []int64{5}, gate.consumed)
	assert.Equal(t, int64(2), gate.pending)
}

func TestRetrainProcessor_BadPayloadSkipsRetry(t *testing.T) {
	trainer := &stubTrainer{}
	p := NewRetrainProcessor(trainer, nil, logger.Discard())

	err := p.ProcessTask(context.Background(), retrainTask(t, "not-a-uuid"))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = p.ProcessTask(context.Background(), asynq.NewTask(TaskRetrainModel, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, trainer.calls)
}

type stubDeleter struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (s *stubDeleter) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return 2, nil
}

func TestEnrichmentCleanup_UsesRetention(t *testing.T) {
	repo := &stubDeleter{}
	c := NewEnrichmentCleanup(repo, logger.Discard(), 0, 48*time.Hour)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), repo.cutoffs[0])
	assert.Equal(t, defaultEnrichmentCleanupInterval, c.interval)
}
