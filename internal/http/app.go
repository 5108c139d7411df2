package http

import (
	"context"

	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness probe. *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// IntakeLimiter decides whether one more intake request is allowed for key.
type IntakeLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// App is what the composition root hands to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	Health HealthChecker
	// IntakeLimiter throttles lead submissions per client IP. Nil disables it.
	IntakeLimiter IntakeLimiter
	Modules       []Module
}
