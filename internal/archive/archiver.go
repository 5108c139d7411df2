// Package archive keeps an immutable copy of every published scoring model
// in object storage, outside the database that serves the active weights.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/learning"
	"leadscore_backend/platform/logger"
)

const snapshotTimeout = 30 * time.Second

// ModelLister reads stored model versions.
type ModelLister interface {
	ListModels(ctx context.Context, organizationID uuid.UUID) ([]learning.Model, error)
}

// Snapshot is the archived document for one model version.
type Snapshot struct {
	ArchivedAt time.Time      `json:"archived_at"`
	Model      learning.Model `json:"model"`
}

// Archiver writes model snapshots on ModelPublished.
type Archiver struct {
	store  ObjectStore
	models ModelLister
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

func NewArchiver(store ObjectStore, models ModelLister, bucket string, log *logger.Logger) *Archiver {
	return &Archiver{store: store, models: models, bucket: bucket, log: log, now: time.Now}
}

// RegisterHandlers subscribes the archiver to model events.
func (a *Archiver) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ModelPublished{}.EventName(), events.HandlerFunc(a.handleModelPublished))
}

// ObjectKey is the bucket key of a model version.
func ObjectKey(organizationID uuid.UUID, version int) string {
	return fmt.Sprintf("%s/v%d.json", organizationID, version)
}

func (a *Archiver) handleModelPublished(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ModelPublished)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	if err := a.Archive(ctx, e.OrganizationID, e.ModelVersion); err != nil {
		a.log.Error("model snapshot failed",
			"organization_id", e.OrganizationID,
			"model_version", e.ModelVersion,
			"error", err,
		)
		return nil
	}
	a.log.Info("model snapshot archived", "organization_id", e.OrganizationID, "model_version", e.ModelVersion)
	return nil
}

// Archive uploads the snapshot of one stored model version.
func (a *Archiver) Archive(ctx context.Context, organizationID uuid.UUID, version int) error {
	models, err := a.models.ListModels(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	for _, m := range models {
		if m.Version != version {
			continue
		}
		body, err := json.MarshalIndent(Snapshot{ArchivedAt: a.now().UTC(), Model: m}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return a.store.PutObject(ctx, a.bucket, ObjectKey(organizationID, version), "application/json", body)
	}
	return fmt.Errorf("%w: version %d", learning.ErrModelVersionNotFound, version)
}
