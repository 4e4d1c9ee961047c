package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harpa/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		session := v1.Group("/session")
		{
			session.GET("", handler.GetSession)
			session.PUT("/store", handler.SelectStore)
			session.DELETE("/store", handler.ResetStore)
		}

		bays := v1.Group("/bays")
		{
			bays.GET("", handler.ListBays)
			bays.PUT("/current", handler.GoToBay)
			bays.POST("/step", handler.StepBay)
			bays.GET("/:bay/layout", handler.BayLayout)
			bays.GET("/:bay/progress", handler.BayProgress)
		}

		v1.GET("/progress", handler.OverallProgress)
		v1.DELETE("/progress", handler.ClearProgress)

		v1.POST("/scan", handler.Scan)

		matches := v1.Group("/matches")
		{
			matches.POST("/step", handler.StepMatch)
			matches.DELETE("", handler.ClearMatches)
		}

		placements := v1.Group("/placements")
		{
			placements.POST("/toggle", handler.TogglePlacement)
			placements.POST("/complete-next", handler.CompleteAndAdvance)
		}

		v1.GET("/planogram/pdf", handler.PlanogramPDF)
	}

	return router
}
