package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/service"
	"github.com/tastyhouse/backend/internal/storage"
)

// SetupAPI wires the services and mounts every handler under /api/v1.
// redisClient may be nil, in which case the write rate limits are off.
func SetupAPI(router *gin.Engine, db *gorm.DB, blobs storage.BlobStore, redisClient *redis.Client, jwtSecret string) {
	v1 := router.Group("/api/v1")
	{
		authService := service.NewAuthService(db, jwtSecret)
		recipeService := service.NewRecipeService(db, blobs, nil, nil)
		profileService := service.NewProfileService(db)
		commentService := service.NewCommentService(db)
		reportService := service.NewReportService(db)

		var createLimiter, modifyLimiter *middleware.RateLimiter
		if redisClient != nil {
			createLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
			modifyLimiter = middleware.NewRecipeModificationRateLimiter(redisClient)
		}

		NewAuthHandler(authService).RegisterRoutes(v1)
		NewRecipeHandler(recipeService, authService, createLimiter, modifyLimiter).RegisterRoutes(v1)
		NewProfileHandler(profileService, recipeService, authService).RegisterRoutes(v1)
		NewCommentHandler(commentService, reportService, authService).RegisterRoutes(v1)
		NewAdminHandler(db, recipeService, reportService, authService).RegisterRoutes(v1)
	}
}
