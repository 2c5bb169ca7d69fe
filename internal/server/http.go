// Package server assembles the gin engine: middleware chain, operational
// endpoints, and the /api route group.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clayman083/passport/internal/config"
	healthhandler "github.com/clayman083/passport/internal/health/handler"
	identityhandler "github.com/clayman083/passport/internal/identity/handler"
	identityservice "github.com/clayman083/passport/internal/identity/service"
	"github.com/clayman083/passport/internal/logging"
	"github.com/clayman083/passport/internal/server/middleware"
)

// Deps holds the dependencies the router needs.
type Deps struct {
	// Auth is the auth service behind every /api endpoint.
	Auth *identityservice.AuthService
	// DB is pinged by the readiness endpoint; nil skips the probe.
	DB healthhandler.Pinger
	// Log receives request-level events from the handlers.
	Log logging.Logger
}

// NewRouter builds the engine with recovery, request-ID, and metrics
// middleware, the operational endpoints under /-/, and the /api group.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	r.GET("/-/health", healthhandler.Check(deps.DB))
	r.GET("/-/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	identityhandler.NewAuthHandler(deps.Auth, cfg, deps.Log).RegisterRoutes(api)

	return r
}
