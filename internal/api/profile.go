package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/service"
)

type ProfileHandler struct {
	profiles    *service.ProfileService
	recipes     *service.RecipeService
	authService *service.AuthService
}

func NewProfileHandler(profiles *service.ProfileService, recipes *service.RecipeService, authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{
		profiles:    profiles,
		recipes:     recipes,
		authService: authService,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.GET("/:id/recipes", h.UserRecipes)
		users.GET("/:id/followers", h.Followers)
		users.GET("/:id/following", h.Following)
		users.POST("/:id/follow", auth, h.Follow)
		users.DELETE("/:id/follow", auth, h.Unfollow)
	}

	recipes := router.Group("/recipes")
	{
		recipes.POST("/:id/save", auth, h.SaveRecipe)
		recipes.DELETE("/:id/save", auth, h.UnsaveRecipe)
	}

	router.GET("/me/saved", auth, h.SavedRecipes)
}

func (h *ProfileHandler) UserRecipes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	recipes, err := h.recipes.ListByUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *ProfileHandler) Followers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	users, err := h.profiles.Followers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *ProfileHandler) Following(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	users, err := h.profiles.Following(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *ProfileHandler) Follow(c *gin.Context) {
	followee, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	follower := c.MustGet("user_id").(uuid.UUID)
	if err := h.profiles.Follow(c.Request.Context(), follower, followee); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "followed"})
}

func (h *ProfileHandler) Unfollow(c *gin.Context) {
	followee, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	follower := c.MustGet("user_id").(uuid.UUID)
	if err := h.profiles.Unfollow(c.Request.Context(), follower, followee); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

func (h *ProfileHandler) SaveRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.profiles.SaveRecipe(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}

func (h *ProfileHandler) UnsaveRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.profiles.UnsaveRecipe(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsaved"})
}

func (h *ProfileHandler) SavedRecipes(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	recipes, err := h.profiles.SavedRecipes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}
