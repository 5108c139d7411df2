package outcomes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLeadNotFound is returned when the lead does not belong to the organization.
var ErrLeadNotFound = errors.New("lead not found")

// Outcome is one recorded result of working a lead. Outcomes are never
// updated; a lead's latest outcome wins.
type Outcome struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	LeadID         uuid.UUID `json:"lead_id"`
	OutcomeType    string    `json:"outcome_type"`
	OutcomeValue   *float64  `json:"outcome_value,omitempty"`
	DaysToOutcome  int       `json:"days_to_outcome"`
	Notes          string    `json:"notes,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Store persists outcomes.
type Store interface {
	LeadCreatedAt(ctx context.Context, organizationID, leadID uuid.UUID) (time.Time, error)
	Insert(ctx context.Context, outcome Outcome) error
	List(ctx context.Context, organizationID, leadID uuid.UUID) ([]Outcome, error)
}

// Repository is the Postgres implementation of Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new outcomes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) LeadCreatedAt(ctx context.Context, organizationID, leadID uuid.UUID) (time.Time, error) {
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT created_at FROM leads WHERE organization_id = $1 AND id = $2`,
		organizationID, leadID,
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrLeadNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get lead: %w", err)
	}
	return createdAt, nil
}

func (r *Repository) Insert(ctx context.Context, o Outcome) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_outcomes (id, organization_id, lead_id, outcome_type, outcome_value, days_to_outcome, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.OrganizationID, o.LeadID, o.OutcomeType, o.OutcomeValue, o.DaysToOutcome, o.Notes, o.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, organizationID, leadID uuid.UUID) ([]Outcome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, lead_id, outcome_type, outcome_value::float8, days_to_outcome, notes, recorded_at
		FROM lead_outcomes
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY recorded_at DESC`,
		organizationID, leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var items []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.OrganizationID, &o.LeadID, &o.OutcomeType, &o.OutcomeValue, &o.DaysToOutcome, &o.Notes, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return items, nil
}

var _ Store = (*Repository)(nil)
