package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/service"
)

type AdminHandler struct {
	db          *gorm.DB
	recipes     *service.RecipeService
	reports     *service.ReportService
	authService *service.AuthService
}

func NewAdminHandler(db *gorm.DB, recipes *service.RecipeService, reports *service.ReportService, authService *service.AuthService) *AdminHandler {
	return &AdminHandler{
		db:          db,
		recipes:     recipes,
		reports:     reports,
		authService: authService,
	}
}

type resolveReportRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin",
		middleware.AuthMiddleware(h.authService),
		middleware.AdminMiddleware(),
	)
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/reports", h.ListReports)
		admin.PUT("/reports/:id", h.ResolveReport)
		admin.DELETE("/recipes/:id", h.DeleteRecipe)
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	var users, recipes, comments, openReports int64

	if err := h.db.Model(&models.User{}).Count(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Model(&models.Recipe{}).Count(&recipes).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Model(&models.Report{}).Where("status = ?", models.ReportStatusOpen).Count(&openReports).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":        users,
		"recipes":      recipes,
		"comments":     comments,
		"open_reports": openReports,
	})
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *AdminHandler) ResolveReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	var req resolveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID := c.MustGet("user_id").(uuid.UUID)
	report, err := h.reports.Resolve(c.Request.Context(), reportID, adminID, req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DeleteRecipe is the moderation teardown: unlike the owner route it skips
// the ownership check, the admin group already gated access.
func (h *AdminHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
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
