package qualification

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/icp"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/phone"
	"leadscore_backend/platform/validator"
)

// Module is the qualification bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// ModuleDeps are the cross-module collaborators of qualification.
type ModuleDeps struct {
	Pool       *pgxpool.Pool
	Criteria   icp.Reader
	Enrichment EnrichmentProvider
	Models     ModelReader
	Schema     scoring.Schema
	Phones     *phone.Normalizer
	Validator  *validator.Validator
	Bus        events.Bus
	Log        *logger.Logger
}

// NewModule creates and initializes the qualification module.
func NewModule(d ModuleDeps) *Module {
	svc := New(Deps{
		Store:      NewRepository(d.Pool),
		Criteria:   d.Criteria,
		Enrichment: d.Enrichment,
		Models:     d.Models,
		Schema:     d.Schema,
		Phones:     d.Phones,
		Validator:  d.Validator,
		Bus:        d.Bus,
		Log:        d.Log,
	})
	return &Module{handler: NewHandler(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "qualification"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts lead scoring routes. Intake is rate limited per client.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if ctx.IntakeRateLimit != nil {
		ctx.Protected.POST("/leads", ctx.IntakeRateLimit, m.handler.Submit)
	} else {
		ctx.Protected.POST("/leads", m.handler.Submit)
	}
	ctx.Protected.POST("/leads/:id/qualify", m.handler.Qualify)
	ctx.Protected.GET("/leads/:id/score-history", m.handler.History)
}

var _ apphttp.Module = (*Module)(nil)
