// Package http assembles the API from self-registering modules.
package http

import "github.com/gin-gonic/gin"

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the route groups they may mount on.
type RouterContext struct {
	// Protected requires a valid access token and resolves the organization.
	Protected *gin.RouterGroup
	// Admin is Protected plus the admin role.
	Admin *gin.RouterGroup
	// IntakeRateLimit throttles lead intake. Nil when limiting is disabled.
	IntakeRateLimit gin.HandlerFunc
}
