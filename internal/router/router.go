package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/api"
	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/storage"
)

// SetupRouter builds the gin engine with CORS, a health endpoint and the
// full API mounted under /api/v1.
func SetupRouter(db *gorm.DB, blobs storage.BlobStore, redisClient *redis.Client, jwtSecret string) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupAPI(router, db, blobs, redisClient, jwtSecret)
	return router
}
