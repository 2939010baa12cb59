// Package http provides HTTP server infrastructure including the Module interface
// that all HTTP-facing modules implement for route registration.
package http

import (
	"departure_finder/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
	// Session is the /api/v1 group with a browser session attached.
	Session *gin.RouterGroup
	// SearchRateLimiter throttles calls that reach the departures service.
	SearchRateLimiter *httpkit.IPRateLimiter
}
