// Package http describes what the operator API router is built from.
package http

import (
	"context"

	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the slice of config the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health; the Cog pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in cmd/api and handed to router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}

// Module mounts one area of the API.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the groups they may mount on. Operator
// already enforces a valid token carrying the operator role.
type RouterContext struct {
	V1       *gin.RouterGroup
	Operator *gin.RouterGroup
}
