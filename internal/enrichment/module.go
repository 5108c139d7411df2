package enrichment

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/platform/ai/chatmodel"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// Module wires the enrichment service.
type Module struct {
	service *Service
}

// NewModule creates the enrichment module. Without an API key the service
// only serves cached rows.
func NewModule(pool *pgxpool.Pool, cfg config.EnrichmentConfig, log *logger.Logger) (*Module, error) {
	var enricher Enricher
	if cfg.IsEnrichmentEnabled() {
		agent, err := NewAgent(chatmodel.New(chatmodel.Config{
			APIKey:   cfg.GetMoonshotAPIKey(),
			Model:    cfg.GetEnrichmentModel(),
			JSONMode: true,
		}))
		if err != nil {
			return nil, err
		}
		enricher = agent
	} else {
		log.Info("lead enrichment disabled: no API key configured")
	}

	svc := NewService(NewRepository(pool), enricher, cfg.GetEnrichmentModel(), cfg.GetEnrichmentTTL(), log)
	return &Module{service: svc}, nil
}

// Service returns the enrichment service.
func (m *Module) Service() *Service {
	return m.service
}
