package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/service"
)

type RecipeHandler struct {
	recipes       *service.RecipeService
	authService   *service.AuthService
	createLimiter *middleware.RateLimiter
	modifyLimiter *middleware.RateLimiter
}

func NewRecipeHandler(recipes *service.RecipeService, authService *service.AuthService, createLimiter, modifyLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipes:       recipes,
		authService:   authService,
		createLimiter: createLimiter,
		modifyLimiter: modifyLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/latest", h.LatestRecipes)
		recipes.GET("/most-viewed", h.MostViewedRecipes)
		recipes.GET("/search", h.SearchRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("/:id/views", h.AddView)

		create := []gin.HandlerFunc{auth}
		if h.createLimiter != nil {
			create = append(create, h.createLimiter.RateLimitMiddleware())
		}
		recipes.POST("", append(create, h.CreateRecipe)...)

		modify := []gin.HandlerFunc{auth}
		if h.modifyLimiter != nil {
			modify = append(modify, h.modifyLimiter.PerRecipeRateLimitMiddleware())
		}
		recipes.PUT("/:id", append(modify, h.UpdateRecipe)...)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		Tag:  c.Query("tag"),
		Sort: c.Query("sort"),
	}
	if v := c.Query("difficulty"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be a number"})
			return
		}
		filter.Difficulty = n
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))

	recipes, total, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"total":   total,
	})
}

func (h *RecipeHandler) LatestRecipes(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	recipes, err := h.recipes.Latest(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) MostViewedRecipes(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	recipes, err := h.recipes.MostViewed(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	recipes, err := h.recipes.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) AddView(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	recipe, err := h.recipes.AddView(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": recipe.Views})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	input, err := parseRecipeForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), input, userID.(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	if !h.requireOwnership(c, id) {
		return
	}

	input, err := parseRecipeForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	if !h.requireOwnership(c, id) {
		return
	}

	recipe, err := h.recipes.Destroy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "recipe deleted",
		"recipe":  recipe,
	})
}

// requireOwnership ensures the requester owns the recipe or carries the
// admin flag. On failure it writes the response and returns false.
func (h *RecipeHandler) requireOwnership(c *gin.Context, recipeID uuid.UUID) bool {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return false
	}

	recipe, err := h.recipes.Get(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if recipe.UserID != userID.(uuid.UUID) && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}
