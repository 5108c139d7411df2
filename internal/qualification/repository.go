package qualification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/scoring"
)

// ErrLeadNotFound is returned when a lead does not exist for the organization.
var ErrLeadNotFound = errors.New("lead not found")

// LeadRecord is a stored lead with its tracking metadata.
type LeadRecord struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Lead           scoring.Lead
	Tracking       scoring.Tracking
	Score          *int
	Label          *string
	CreatedAt      time.Time
}

// HistoryEntry is one scoring event. The features column is what the
// trainer later joins outcomes against.
type HistoryEntry struct {
	ID             uuid.UUID             `json:"id"`
	OrganizationID uuid.UUID             `json:"organization_id"`
	LeadID         uuid.UUID             `json:"lead_id"`
	Features       scoring.FeatureVector `json:"features"`
	Score          int                   `json:"score"`
	Label          scoring.Label         `json:"label"`
	FitScore       int                   `json:"fit_score"`
	ModelVersion   int                   `json:"model_version"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Store is the persistence used by the qualification service.
type Store interface {
	GetLead(ctx context.Context, organizationID, leadID uuid.UUID) (LeadRecord, error)
	CreateLead(ctx context.Context, lead LeadRecord) error
	GetBehavior(ctx context.Context, organizationID, leadID uuid.UUID) (*scoring.Behavioral, error)
	SaveScore(ctx context.Context, entry HistoryEntry) error
	ListHistory(ctx context.Context, organizationID, leadID uuid.UUID) ([]HistoryEntry, error)
}

// Repository is the Postgres implementation of Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new qualification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetLead(ctx context.Context, organizationID, leadID uuid.UUID) (LeadRecord, error) {
	var rec LeadRecord
	l := &rec.Lead
	tr := &rec.Tracking
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, first_name, last_name, phone, job_title,
			company_name, company_website, company_size, industry, budget_range, timeline, challenge,
			utm_source, utm_medium, gclid, fbclid, ttclid, score, label, created_at
		FROM leads
		WHERE organization_id = $1 AND id = $2`,
		organizationID, leadID,
	).Scan(&rec.ID, &rec.OrganizationID, &l.Email, &l.FirstName, &l.LastName, &l.Phone, &l.JobTitle,
		&l.CompanyName, &l.CompanyWebsite, &l.CompanySize, &l.Industry, &l.BudgetRange, &l.Timeline, &l.Challenge,
		&tr.UTMSource, &tr.UTMMedium, &tr.GCLID, &tr.FBCLID, &tr.TTCLID, &rec.Score, &rec.Label, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadRecord{}, ErrLeadNotFound
	}
	if err != nil {
		return LeadRecord{}, fmt.Errorf("get lead: %w", err)
	}
	return rec, nil
}

func (r *Repository) CreateLead(ctx context.Context, rec LeadRecord) error {
	l := rec.Lead
	tr := rec.Tracking
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (id, organization_id, email, first_name, last_name, phone, job_title,
			company_name, company_website, company_size, industry, budget_range, timeline, challenge,
			utm_source, utm_medium, gclid, fbclid, ttclid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		rec.ID, rec.OrganizationID, l.Email, l.FirstName, l.LastName, l.Phone, l.JobTitle,
		l.CompanyName, l.CompanyWebsite, l.CompanySize, l.Industry, l.BudgetRange, l.Timeline, l.Challenge,
		tr.UTMSource, tr.UTMMedium, tr.GCLID, tr.FBCLID, tr.TTCLID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// GetBehavior returns the analytics aggregate, or nil when none was collected.
func (r *Repository) GetBehavior(ctx context.Context, organizationID, leadID uuid.UUID) (*scoring.Behavioral, error) {
	var b scoring.Behavioral
	err := r.pool.QueryRow(ctx, `
		SELECT engagement_score, intent_score, recency_score, frequency_score,
			pricing_page_views, demo_page_views, case_study_views, cta_clicks, forms_completed
		FROM lead_behavior
		WHERE organization_id = $1 AND lead_id = $2`,
		organizationID, leadID,
	).Scan(&b.EngagementScore, &b.IntentScore, &b.RecencyScore, &b.FrequencyScore,
		&b.PricingPageViews, &b.DemoPageViews, &b.CaseStudyViews, &b.CTAClicks, &b.FormsCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead behavior: %w", err)
	}
	return &b, nil
}

// SaveScore appends the history row and stores the headline score on the
// lead in one transaction.
func (r *Repository) SaveScore(ctx context.Context, e HistoryEntry) error {
	features, err := scoring.SerializeFeatures(e.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save score: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_scoring_history (id, organization_id, lead_id, features, score, label, fit_score, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.OrganizationID, e.LeadID, features, e.Score, string(e.Label), e.FitScore, e.ModelVersion, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert scoring history: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET score = $3, label = $4, scored_at = $5
		WHERE organization_id = $1 AND id = $2`,
		e.OrganizationID, e.LeadID, e.Score, string(e.Label), e.CreatedAt,
	); err != nil {
		return fmt.Errorf("update lead score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save score: %w", err)
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, organizationID, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, lead_id, features, score, label, fit_score, model_version, created_at
		FROM lead_scoring_history
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY created_at DESC`,
		organizationID, leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scoring history: %w", err)
	}
	defer rows.Close()

	var items []HistoryEntry
	for rows.Next() {
		var (
			e        HistoryEntry
			features []byte
			label    string
		)
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.LeadID, &features, &e.Score, &label, &e.FitScore, &e.ModelVersion, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scoring history: %w", err)
		}
		e.Features = scoring.DeserializeFeatures(features)
		e.Label = scoring.Label(label)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring history: %w", err)
	}
	return items, nil
}

var _ Store = (*Repository)(nil)
