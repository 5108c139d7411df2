package outcomes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore_backend/internal/events"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
)

type memoryStore struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]time.Time
	outcomes []Outcome
}

func (m *memoryStore) LeadCreatedAt(_ context.Context, _, leadID uuid.UUID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	createdAt, ok := m.leads[leadID]
	if !ok {
		return time.Time{}, ErrLeadNotFound
	}
	return createdAt, nil
}

func (m *memoryStore) Insert(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
	return nil
}

func (m *memoryStore) List(_ context.Context, _, leadID uuid.UUID) ([]Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Outcome
	for _, o := range m.outcomes {
		if o.LeadID == leadID {
			out = append(out, o)
		}
	}
	return out, nil
}

type countingEnqueuer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingEnqueuer) EnqueueRetrain(context.Context, uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

type setup struct {
	svc      *Service
	store    *memoryStore
	gate     *RetrainGate
	enqueuer *countingEnqueuer
	leadID   uuid.UUID
	mr       *miniredis.Miniredis
}

func newSetup(t *testing.T, threshold int) setup {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	leadID := uuid.New()
	store := &memoryStore{leads: map[uuid.UUID]time.Time{leadID: time.Now().Add(-72 * time.Hour)}}
	gate := NewRedisRetrainGate(client, threshold)
	enq := &countingEnqueuer{}
	svc := New(store, gate, enq, nil, events.NewInMemoryBus(logger.Discard()), logger.Discard())
	return setup{svc: svc, store: store, gate: gate, enqueuer: enq, leadID: leadID, mr: mr}
}

func TestRecord_DerivesDaysAndDropsValue(t *testing.T) {
	s := newSetup(t, 10)
	value := 5000.0

	o, err := s.svc.Record(context.Background(), uuid.New(), s.leadID, RecordOutcomeRequest{
		OutcomeType:  "Rejected",
		OutcomeValue: &value,
	})
	require.NoError(t, err)

	assert.Equal(t, "rejected", o.OutcomeType)
	assert.Nil(t, o.OutcomeValue)
	assert.Equal(t, 3, o.DaysToOutcome)
	assert.Len(t, s.store.outcomes, 1)
}

func TestRecord_KeepsConversionValue(t *testing.T) {
	s := newSetup(t, 10)
	value := 12000.0
	days := 14

	o, err := s.svc.Record(context.Background(), uuid.New(), s.leadID, RecordOutcomeRequest{
		OutcomeType:   "converted",
		OutcomeValue:  &value,
		DaysToOutcome: &days,
	})
	require.NoError(t, err)
	require.NotNil(t, o.OutcomeValue)
	assert.Equal(t, 12000.0, *o.OutcomeValue)
	assert.Equal(t, 14, o.DaysToOutcome)
}

func TestRecord_Validation(t *testing.T) {
	s := newSetup(t, 10)
	negative := -1

	cases := map[string]RecordOutcomeRequest{
		"missing type":  {},
		"unknown type":  {OutcomeType: "won"},
		"negative days": {OutcomeType: "converted", DaysToOutcome: &negative},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.svc.Record(context.Background(), uuid.New(), s.leadID, req)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
	assert.Empty(t, s.store.outcomes)
}

func TestRecord_UnknownLead(t *testing.T) {
	s := newSetup(t, 10)

	_, err := s.svc.Record(context.Background(), uuid.New(), uuid.New(), RecordOutcomeRequest{OutcomeType: "converted"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecord_EnqueuesAtThreshold(t *testing.T) {
	s := newSetup(t, 3)
	orgID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.svc.Record(ctx, orgID, s.leadID, RecordOutcomeRequest{OutcomeType: "no_response"})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, s.enqueuer.calls)

	_, err := s.svc.Record(ctx, orgID, s.leadID, RecordOutcomeRequest{OutcomeType: "converted"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.enqueuer.calls)

	pending, err := s.gate.Pending(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	require.NoError(t, s.gate.Consume(ctx, orgID, pending))
	pending, err = s.gate.Pending(ctx, orgID)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestRecord_OutcomesDuringTrainingStayCounted(t *testing.T) {
	s := newSetup(t, 3)
	orgID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.svc.Record(ctx, orgID, s.leadID, RecordOutcomeRequest{OutcomeType: "rejected"})
		require.NoError(t, err)
	}
	seen, err := s.gate.Pending(ctx, orgID)
	require.NoError(t, err)

	_, err = s.svc.Record(ctx, orgID, s.leadID, RecordOutcomeRequest{OutcomeType: "converted"})
	require.NoError(t, err)

	require.NoError(t, s.gate.Consume(ctx, orgID, seen))
	pending, err := s.gate.Pending(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestRecord_GateFailureStillRecords(t *testing.T) {
	s := newSetup(t, 1)
	s.mr.Close()

	_, err := s.svc.Record(context.Background(), uuid.New(), s.leadID, RecordOutcomeRequest{OutcomeType: "converted"})
	require.NoError(t, err)
	assert.Len(t, s.store.outcomes, 1)
	assert.Equal(t, 0, s.enqueuer.calls)
}

func TestRecord_EnqueueFailureStillRecords(t *testing.T) {
	s := newSetup(t, 1)
	s.enqueuer.err = errors.New("queue down")

	_, err := s.svc.Record(context.Background(), uuid.New(), s.leadID, RecordOutcomeRequest{OutcomeType: "converted"})
	require.NoError(t, err)
	assert.Len(t, s.store.outcomes, 1)
}

func TestList(t *testing.T) {
	s := newSetup(t, 10)
	orgID := uuid.New()

	items, err := s.svc.List(context.Background(), orgID, s.leadID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = s.svc.Record(context.Background(), orgID, s.leadID, RecordOutcomeRequest{OutcomeType: "in_progress"})
	require.NoError(t, err)
	items, err = s.svc.List(context.Background(), orgID, s.leadID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
