package outcomes

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"
)

// Module wires the outcome recorder HTTP routes.
type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, gate *RetrainGate, enqueuer RetrainEnqueuer, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := New(NewRepository(pool), gate, enqueuer, val, bus, log)
	return &Module{handler: NewHandler(svc), service: svc}
}

func (m *Module) Name() string {
	return "outcomes"
}

func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/leads/:id/outcomes", m.handler.Record)
	ctx.Protected.GET("/leads/:id/outcomes", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
