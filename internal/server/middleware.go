package server

import (
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS opens the read API and the mapping maintenance routes to browser clients.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After", logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
