package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/scoring"
)

// ErrNotFound is returned when no enrichment is cached for a lead.
var ErrNotFound = errors.New("enrichment not found")

// Record is a cached enrichment row.
type Record struct {
	Enrichment scoring.Enrichment
	Model      string
	CreatedAt  time.Time
}

// Store persists enrichment results per lead.
type Store interface {
	Get(ctx context.Context, organizationID, leadID uuid.UUID) (Record, error)
	Save(ctx context.Context, organizationID, leadID uuid.UUID, enrichment scoring.Enrichment, model string) error
}

// Repository is the Postgres implementation of Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new enrichment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, organizationID, leadID uuid.UUID) (Record, error) {
	var (
		rec     Record
		payload []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT payload, model, created_at
		FROM lead_enrichments
		WHERE organization_id = $1 AND lead_id = $2`,
		organizationID, leadID,
	).Scan(&payload, &rec.Model, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get enrichment: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.Enrichment); err != nil {
		return Record{}, fmt.Errorf("decode enrichment: %w", err)
	}
	return rec, nil
}

func (r *Repository) Save(ctx context.Context, organizationID, leadID uuid.UUID, enrichment scoring.Enrichment, model string) error {
	payload, err := json.Marshal(enrichment)
	if err != nil {
		return fmt.Errorf("encode enrichment: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_enrichments (lead_id, organization_id, payload, model, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (lead_id) DO UPDATE
		SET payload = EXCLUDED.payload, model = EXCLUDED.model, created_at = EXCLUDED.created_at`,
		leadID, organizationID, payload, model,
	)
	if err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	return nil
}

var _ Store = (*Repository)(nil)

// DeleteOlderThan removes cached rows created before cutoff and returns the
// number of rows deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_enrichments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale enrichments: %w", err)
	}
	return tag.RowsAffected(), nil
}
