package archive

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/learning"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/logger"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }

func (m *memoryObjects) PutObject(_ context.Context, bucket, key, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[bucket+"/"+key] = body
	return nil
}

type staticModels []learning.Model

func (s staticModels) ListModels(context.Context, uuid.UUID) ([]learning.Model, error) {
	return s, nil
}

func testModel(orgID uuid.UUID, version int) learning.Model {
	return learning.Model{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Version:        version,
		Weights:        scoring.DefaultWeights(scoring.ExtendedSchema),
		Metrics:        learning.Metrics{Accuracy: 0.72},
		TrainedOnCount: 64,
		IsActive:       true,
	}
}

func TestArchiveOnModelPublished(t *testing.T) {
	orgID := uuid.New()
	objects := &memoryObjects{}
	a := NewArchiver(objects, staticModels{testModel(orgID, 2), testModel(orgID, 1)}, "scoring-models", logger.Discard())
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	bus := events.NewInMemoryBus(logger.Discard())
	a.RegisterHandlers(bus)
	bus.Publish(context.Background(), events.ModelPublished{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		ModelVersion:   2,
	})
	bus.Wait()

	body, ok := objects.objects["scoring-models/"+orgID.String()+"/v2.json"]
	require.True(t, ok)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 2, snap.Model.Version)
	assert.Equal(t, 64, snap.Model.TrainedOnCount)
	assert.InDelta(t, 0.08, snap.Model.Weights[scoring.CompanySizeMatch], 1e-9)
}

func TestArchive_UnknownVersion(t *testing.T) {
	orgID := uuid.New()
	a := NewArchiver(&memoryObjects{}, staticModels{testModel(orgID, 1)}, "b", logger.Discard())

	err := a.Archive(context.Background(), orgID, 5)
	assert.ErrorIs(t, err, learning.ErrModelVersionNotFound)
}

func TestArchive_StoreFailureIsSwallowedByHandler(t *testing.T) {
	orgID := uuid.New()
	objects := &memoryObjects{err: errors.New("bucket offline")}
	a := NewArchiver(objects, staticModels{testModel(orgID, 1)}, "b", logger.Discard())

	err := a.handleModelPublished(context.Background(), events.ModelPublished{OrganizationID: orgID, ModelVersion: 1})
	assert.NoError(t, err)
	assert.Empty(t, objects.objects)
}
