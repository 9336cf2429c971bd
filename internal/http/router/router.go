// Package router assembles the Gin engine from the application's modules.
package router

import (
	"net/http"
	"time"

	apphttp "reassessment_tracker/internal/http"
	"reassessment_tracker/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the HTTP engine: global middleware, health endpoint, and the
// ingest routes contributed by each registered module.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(newCORS(app))

	engine.GET("/api/health", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	ingestLimiter := httpkit.NewIPRateLimiter(50, 100, app.Logger)
	ingest := v1.Group("/ingest")
	ingest.Use(ingestLimiter.RateLimit())
	ingest.Use(httpkit.APIKeyRequired(app.IngestAPIKey))

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Ingest: ingest,
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		app.Logger.Debug("registered module routes", "module", m.Name())
	}

	return engine
}

func newCORS(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Ingest-API-Key"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(cfg)
}
