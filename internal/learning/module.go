package learning

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/redislock"
)

// Module is the learning bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

// NewModule wires the trainer, repository and service. The locker may be nil.
func NewModule(pool *pgxpool.Pool, cfg config.LearningConfig, locker *redislock.Locker, bus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	schema := scoring.Schema{Extended: cfg.GetScoringExtendedFeatures()}
	trainer := NewTrainer(schema, nil)
	svc := NewService(repo, repo, trainer, locker, cfg.GetTrainingLockTTL(), bus, log)

	return &Module{
		handler: NewHandler(svc),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "learning"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// Repository returns the model store for direct reads.
func (m *Module) Repository() ModelRepository {
	return m.repo
}

// RegisterRoutes mounts model routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/scoring-models", m.handler.List)
	ctx.Protected.GET("/scoring-models/active", m.handler.Active)

	admin := ctx.Admin.Group("/scoring-models")
	admin.POST("/train", m.handler.Train)
	admin.POST("/:version/activate", m.handler.Activate)
}

var _ apphttp.Module = (*Module)(nil)
