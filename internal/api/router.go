package api

import (
	"github.com/gin-gonic/gin"
	"github.com/tomaz/labelscan/internal/api/handler"
	"github.com/tomaz/labelscan/internal/api/middleware"
	"github.com/tomaz/labelscan/internal/logger"
	"github.com/tomaz/labelscan/internal/service"
)

// RouterConfig holds the router-level configuration.
type RouterConfig struct {
	Mode string
	CORS middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(scanService *service.ScanService, log *logger.Logger, cfg *RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	labelHandler := handler.NewLabelHandler(scanService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/labels/scan", labelHandler.ScanLabel)
	}

	return r
}
