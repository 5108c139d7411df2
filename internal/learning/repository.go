package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/scoring"
)

// TrainingDataRepository loads labelled examples.
type TrainingDataRepository interface {
	FetchOutcomesWithFeatures(ctx context.Context, organizationID uuid.UUID) ([]Example, error)
}

// ModelRepository is the versioned model store. PublishModel and
// ActivateVersion swap the active model atomically.
type ModelRepository interface {
	GetActiveModel(ctx context.Context, organizationID uuid.UUID) (Model, error)
	PublishModel(ctx context.Context, organizationID uuid.UUID, draft Draft) (Model, error)
	ListModels(ctx context.Context, organizationID uuid.UUID) ([]Model, error)
	ActivateVersion(ctx context.Context, organizationID uuid.UUID, version int) (Model, error)
}

// Repository implements both repositories on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new learning repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// trainingExamplesQuery pairs every recorded outcome with the most recent
// feature vector scored at or before it. A lead with several outcomes yields
// several examples.
const trainingExamplesQuery = `
	SELECT o.lead_id, o.outcome_type, h.features
	FROM lead_outcomes o
	JOIN LATERAL (
		SELECT features
		FROM lead_scoring_history
		WHERE organization_id = o.organization_id
			AND lead_id = o.lead_id
			AND created_at <= o.recorded_at
		ORDER BY created_at DESC
		LIMIT 1
	) h ON true
	WHERE o.organization_id = $1
	ORDER BY o.recorded_at, o.id`

// FetchOutcomesWithFeatures returns one example per outcome. Outcomes recorded
// before the lead was ever scored are skipped.
func (r *Repository) FetchOutcomesWithFeatures(ctx context.Context, organizationID uuid.UUID) ([]Example, error) {
	rows, err := r.pool.Query(ctx, trainingExamplesQuery,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch training examples: %w", err)
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var (
			ex       Example
			outcome  string
			features []byte
		)
		if err := rows.Scan(&ex.LeadID, &outcome, &features); err != nil {
			return nil, fmt.Errorf("scan training example: %w", err)
		}
		ex.Outcome = OutcomeType(outcome)
		ex.Features = scoring.DeserializeFeatures(features)
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training examples: %w", err)
	}
	return examples, nil
}

const modelColumns = `id, organization_id, model_version, feature_weights, performance_metrics, trained_on_count, is_active, created_at`

func (r *Repository) GetActiveModel(ctx context.Context, organizationID uuid.UUID) (Model, error) {
	m, err := scanModel(r.pool.QueryRow(ctx, `
		SELECT `+modelColumns+`
		FROM scoring_models
		WHERE organization_id = $1 AND is_active`,
		organizationID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Model{}, ErrNoActiveModel
	}
	if err != nil {
		return Model{}, fmt.Errorf("get active model: %w", err)
	}
	return m, nil
}

// PublishModel inserts the draft as the next version and makes it the only
// active model. Concurrent publishes for one organization serialize on an
// advisory lock.
func (r *Repository) PublishModel(ctx context.Context, organizationID uuid.UUID, draft Draft) (Model, error) {
	weights, err := json.Marshal(draft.Weights)
	if err != nil {
		return Model{}, fmt.Errorf("encode weights: %w", err)
	}
	metrics, err := json.Marshal(draft.Metrics)
	if err != nil {
		return Model{}, fmt.Errorf("encode metrics: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Model{}, fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockModels(ctx, tx, organizationID); err != nil {
		return Model{}, err
	}

	var version int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(model_version), 0) + 1
		FROM scoring_models
		WHERE organization_id = $1`,
		organizationID,
	).Scan(&version); err != nil {
		return Model{}, fmt.Errorf("next model version: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE scoring_models SET is_active = false
		WHERE organization_id = $1 AND is_active`,
		organizationID,
	); err != nil {
		return Model{}, fmt.Errorf("deactivate model: %w", err)
	}

	m, err := scanModel(tx.QueryRow(ctx, `
		INSERT INTO scoring_models (id, organization_id, model_version, feature_weights, performance_metrics, trained_on_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING `+modelColumns,
		uuid.New(), organizationID, version, weights, metrics, draft.TrainedOnCount,
	))
	if err != nil {
		return Model{}, fmt.Errorf("insert model: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Model{}, fmt.Errorf("commit publish: %w", err)
	}
	return m, nil
}

func (r *Repository) ListModels(ctx context.Context, organizationID uuid.UUID) ([]Model, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+modelColumns+`
		FROM scoring_models
		WHERE organization_id = $1
		ORDER BY model_version DESC`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return models, nil
}

// ActivateVersion makes an earlier version the active one.
func (r *Repository) ActivateVersion(ctx context.Context, organizationID uuid.UUID, version int) (Model, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Model{}, fmt.Errorf("begin activate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockModels(ctx, tx, organizationID); err != nil {
		return Model{}, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM scoring_models WHERE organization_id = $1 AND model_version = $2)`,
		organizationID, version,
	).Scan(&exists); err != nil {
		return Model{}, fmt.Errorf("check model version: %w", err)
	}
	if !exists {
		return Model{}, ErrModelVersionNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE scoring_models SET is_active = false
		WHERE organization_id = $1 AND is_active AND model_version <> $2`,
		organizationID, version,
	); err != nil {
		return Model{}, fmt.Errorf("deactivate model: %w", err)
	}

	m, err := scanModel(tx.QueryRow(ctx, `
		UPDATE scoring_models SET is_active = true
		WHERE organization_id = $1 AND model_version = $2
		RETURNING `+modelColumns,
		organizationID, version,
	))
	if err != nil {
		return Model{}, fmt.Errorf("activate model: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Model{}, fmt.Errorf("commit activate: %w", err)
	}
	return m, nil
}

func lockModels(ctx context.Context, tx pgx.Tx, organizationID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('scoring_models:' || $1::text))`, organizationID); err != nil {
		return fmt.Errorf("lock scoring models: %w", err)
	}
	return nil
}

func scanModel(row pgx.Row) (Model, error) {
	var (
		m       Model
		weights []byte
		metrics []byte
	)
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.Version, &weights, &metrics, &m.TrainedOnCount, &m.IsActive, &m.CreatedAt); err != nil {
		return Model{}, err
	}

	var raw map[string]float64
	if err := json.Unmarshal(weights, &raw); err != nil {
		return Model{}, fmt.Errorf("decode weights: %w", err)
	}
	m.Weights = scoring.WeightsFromMap(raw)

	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &m.Metrics); err != nil {
			return Model{}, fmt.Errorf("decode metrics: %w", err)
		}
	}
	return m, nil
}

var (
	_ TrainingDataRepository = (*Repository)(nil)
	_ ModelRepository        = (*Repository)(nil)
)
