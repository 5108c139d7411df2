// Package qualification orchestrates lead scoring: it gathers every input
// for a lead, runs the extractor and scorer, and records the result as
// scoring history.
package qualification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/icp"
	"leadscore_backend/internal/learning"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/metrics"
	"leadscore_backend/platform/phone"
	"leadscore_backend/platform/sanitize"
	"leadscore_backend/platform/validator"
)

const enrichmentTimeout = 20 * time.Second

// EnrichmentProvider returns AI enrichment for a lead, or nil when none
// is available.
type EnrichmentProvider interface {
	ForLead(ctx context.Context, organizationID, leadID uuid.UUID, lead scoring.Lead) (*scoring.Enrichment, error)
}

// ModelReader loads the active scoring model.
type ModelReader interface {
	GetActiveModel(ctx context.Context, organizationID uuid.UUID) (learning.Model, error)
}

// Service qualifies leads.
type Service struct {
	store      Store
	criteria   icp.Reader
	enrichment EnrichmentProvider
	models     ModelReader
	extractor  *scoring.Extractor
	schema     scoring.Schema
	phones     *phone.Normalizer
	val        *validator.Validator
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// Deps groups the collaborators of the service. Enrichment may be nil.
type Deps struct {
	Store      Store
	Criteria   icp.Reader
	Enrichment EnrichmentProvider
	Models     ModelReader
	Schema     scoring.Schema
	Phones     *phone.Normalizer
	Validator  *validator.Validator
	Bus        events.Bus
	Log        *logger.Logger
}

// New creates a qualification service.
func New(d Deps) *Service {
	phones := d.Phones
	if phones == nil {
		phones = phone.NewNormalizer(phone.DefaultRegion)
	}
	val := d.Validator
	if val == nil {
		val = validator.New()
	}
	return &Service{
		store:      d.Store,
		criteria:   d.Criteria,
		enrichment: d.Enrichment,
		models:     d.Models,
		extractor:  scoring.NewExtractor(),
		schema:     d.Schema,
		phones:     phones,
		val:        val,
		bus:        d.Bus,
		log:        d.Log,
		now:        time.Now,
	}
}

// inputs is everything loaded for one lead besides the lead itself.
type inputs struct {
	criteria   []scoring.Criterion
	enrichment *scoring.Enrichment
	behavioral *scoring.Behavioral
	model      *scoring.ActiveModel
}

// Qualify scores a stored lead and appends a scoring history row.
// Enrichment and behavioral lookups degrade to neutral signals on failure;
// criteria and model lookups do not.
func (s *Service) Qualify(ctx context.Context, organizationID, leadID uuid.UUID) (*Result, error) {
	rec, err := s.store.GetLead(ctx, organizationID, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return s.qualify(ctx, rec)
}

func (s *Service) qualify(ctx context.Context, rec LeadRecord) (*Result, error) {
	log := s.log.WithContext(ctx)
	in, err := s.load(ctx, rec)
	if err != nil {
		return nil, err
	}

	tracking := rec.Tracking
	features, notes := s.extractor.ExtractExplained(scoring.Input{
		Lead:       rec.Lead,
		Criteria:   in.criteria,
		Enrichment: in.enrichment,
		Behavioral: in.behavioral,
		Tracking:   &tracking,
	})

	q := scoring.Qualify(scoring.QualifyInput{
		Features:     features,
		Explanations: notes,
		Lead:         rec.Lead,
		Criteria:     in.criteria,
		Model:        in.model,
		Schema:       s.schema,
	})

	scoredAt := s.now().UTC()
	entry := HistoryEntry{
		ID:             uuid.New(),
		OrganizationID: rec.OrganizationID,
		LeadID:         rec.ID,
		Features:       features,
		Score:          q.Score,
		Label:          q.Label,
		FitScore:       q.FitScore,
		ModelVersion:   q.ModelVersion,
		CreatedAt:      scoredAt,
	}
	if err := s.store.SaveScore(ctx, entry); err != nil {
		log.DatabaseError("save_score", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to save score", err)
	}

	s.bus.Publish(ctx, events.LeadQualified{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: rec.OrganizationID,
		LeadID:         rec.ID,
		Score:          q.Score,
		Label:          string(q.Label),
		ModelVersion:   q.ModelVersion,
	})
	metrics.ObserveQualification(string(q.Label), q.Score)
	log.LeadScored(rec.OrganizationID.String(), rec.ID.String(), q.Score, string(q.Label), q.ModelVersion)

	return &Result{LeadID: rec.ID, Qualification: q, ScoredAt: scoredAt}, nil
}

func (s *Service) load(ctx context.Context, rec LeadRecord) (inputs, error) {
	var in inputs
	log := s.log.WithContext(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		criteria, err := s.criteria.ListActive(gctx, rec.OrganizationID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load icp criteria", err)
		}
		in.criteria = criteria
		return nil
	})

	g.Go(func() error {
		m, err := s.models.GetActiveModel(gctx, rec.OrganizationID)
		if errors.Is(err, learning.ErrNoActiveModel) {
			return nil
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load scoring model", err)
		}
		in.model = m.Active()
		return nil
	})

	g.Go(func() error {
		b, err := s.store.GetBehavior(gctx, rec.OrganizationID, rec.ID)
		if err != nil {
			log.Warn("behavioral lookup failed, using neutral signals", "lead_id", rec.ID, "error", err)
			return nil
		}
		in.behavioral = b
		return nil
	})

	if s.enrichment != nil {
		g.Go(func() error {
			ectx, cancel := context.WithTimeout(gctx, enrichmentTimeout)
			defer cancel()
			e, err := s.enrichment.ForLead(ectx, rec.OrganizationID, rec.ID, rec.Lead)
			if err != nil {
				log.Warn("enrichment unavailable, using neutral signals", "lead_id", rec.ID, "error", err)
				return nil
			}
			in.enrichment = e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// Submit stores a form submission and qualifies it.
func (s *Service) Submit(ctx context.Context, organizationID uuid.UUID, req SubmitLeadRequest) (*Result, error) {
	if err := s.val.Struct(req); err != nil {
		return nil, apperr.Validation("invalid lead submission").WithDetails(validator.Fields(err))
	}

	rec := LeadRecord{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Lead: scoring.Lead{
			Email:          strings.ToLower(strings.TrimSpace(req.Email)),
			FirstName:      sanitize.Text(req.FirstName),
			LastName:       sanitize.Text(req.LastName),
			Phone:          s.phones.NormalizeE164(req.Phone),
			JobTitle:       sanitize.Text(req.JobTitle),
			CompanyName:    sanitize.Text(req.CompanyName),
			CompanyWebsite: strings.TrimSpace(req.CompanyWebsite),
			CompanySize:    sanitize.Text(req.CompanySize),
			Industry:       sanitize.Text(req.Industry),
			BudgetRange:    sanitize.Text(req.BudgetRange),
			Timeline:       sanitize.Text(req.Timeline),
			Challenge:      sanitize.Text(req.Challenge),
		},
		Tracking: scoring.Tracking{
			UTMSource: strings.TrimSpace(req.UTMSource),
			UTMMedium: strings.TrimSpace(req.UTMMedium),
			GCLID:     strings.TrimSpace(req.GCLID),
			FBCLID:    strings.TrimSpace(req.FBCLID),
			TTCLID:    strings.TrimSpace(req.TTCLID),
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.CreateLead(ctx, rec); err != nil {
		s.log.WithContext(ctx).DatabaseError("create_lead", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store lead", err)
	}
	return s.qualify(ctx, rec)
}

// History returns the lead's scoring events, newest first.
func (s *Service) History(ctx context.Context, organizationID, leadID uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.store.GetLead(ctx, organizationID, leadID); err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	items, err := s.store.ListHistory(ctx, organizationID, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load scoring history", err)
	}
	if items == nil {
		items = []HistoryEntry{}
	}
	return items, nil
}
