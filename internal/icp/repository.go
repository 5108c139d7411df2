// Package icp stores the per-organization ideal customer profile criteria
// read by the scoring pipeline.
package icp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/scoring"
)

// Reader is the read-only view used by qualification.
type Reader interface {
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]scoring.Criterion, error)
}

// Repository is the Postgres store for ICP criteria.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ICP repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns the organization's active criteria in configured order.
func (r *Repository) ListActive(ctx context.Context, organizationID uuid.UUID) ([]scoring.Criterion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, type, weight, ideal_values, is_required
		FROM icp_criteria
		WHERE organization_id = $1 AND is_active
		ORDER BY position, created_at`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list icp criteria: %w", err)
	}
	defer rows.Close()

	var items []scoring.Criterion
	for rows.Next() {
		var (
			c   scoring.Criterion
			typ string
		)
		if err := rows.Scan(&c.Name, &typ, &c.Weight, &c.IdealValues, &c.IsRequired); err != nil {
			return nil, fmt.Errorf("scan icp criterion: %w", err)
		}
		c.Type = scoring.CriterionType(typ)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate icp criteria: %w", err)
	}
	return items, nil
}

// Replace swaps the organization's criteria for the given set in one
// transaction. Previous rows are deactivated, not deleted.
func (r *Repository) Replace(ctx context.Context, organizationID uuid.UUID, criteria []scoring.Criterion) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin icp replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE icp_criteria SET is_active = false
		WHERE organization_id = $1 AND is_active`,
		organizationID,
	); err != nil {
		return fmt.Errorf("deactivate icp criteria: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range criteria {
		ideal := c.IdealValues
		if ideal == nil {
			ideal = []string{}
		}
		batch.Queue(`
			INSERT INTO icp_criteria (id, organization_id, name, type, weight, ideal_values, is_required, is_active, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8)`,
			uuid.New(), organizationID, c.Name, string(c.Type), c.Weight, ideal, c.IsRequired, i,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert icp criteria: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit icp replace: %w", err)
	}
	return nil
}

var _ Reader = (*Repository)(nil)
