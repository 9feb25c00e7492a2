// Package admin is the ambient operability surface over the ASTM
// engines: a Gin status/control API (session audit log, health,
// Prometheus metrics, Swagger docs), adapted from the teacher's
// pkg/api package with devices/discovery/control routes replaced by
// the session-audit routes spec.md's admin surface calls for.
package admin

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/labconn/astm/pkg/store"
)

// Router holds the Gin engine and its dependencies.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the admin API router over sessions and metrics.
func NewRouter(sessions store.SessionStore, metrics *Metrics) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	setupMiddleware(engine)

	h := &handlers{sessions: sessions, metrics: metrics}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/healthz", h.Healthz)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/sessions")
	{
		v1.GET("", h.ListSessions)
		v1.GET("/:id", h.GetSession)
	}

	return &Router{engine: engine}
}

// Run starts the admin HTTP server. It blocks until the listener
// fails or is closed.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// Handler exposes the underlying http.Handler, for embedding the admin
// API behind a supervised http.Server (internal/run) instead of Gin's
// own blocking Run.
func (r *Router) Handler() *gin.Engine {
	return r.engine
}
