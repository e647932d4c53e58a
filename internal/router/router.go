package router

import (
	"github.com/gin-gonic/gin"

	"plinvoice/internal/config"
	"plinvoice/internal/handler"
	"plinvoice/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	extractionH *handler.ExtractionHandler,
	ncmH *handler.NCMHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	v1.POST("/extract", extractionH.Extract)

	extractions := v1.Group("/extractions")
	extractions.GET("", extractionH.List)
	extractions.GET("/:id", extractionH.GetByID)
	extractions.GET("/:id/export", extractionH.Export)
	extractions.GET("/:id/file", extractionH.SourceFile)
	extractions.DELETE("/:id", extractionH.Delete)

	ncmGroup := v1.Group("/ncm")
	ncmGroup.GET("/search", ncmH.Search)
	ncmGroup.GET("/:code", ncmH.GetByCode)
	ncmGroup.GET("/:code/hierarchy", ncmH.Hierarchy)

	return r
}
