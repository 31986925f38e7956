// Package relay serves the title-trimming endpoint used by the extractor.
package relay

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterConfig holds the settings SetupRouter needs
type RouterConfig struct {
	Environment    string
	AllowedOrigins []string
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg RouterConfig, handler *Handler, logger *logrus.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/trim-title", handler.TrimTitle)
	}

	return router
}
