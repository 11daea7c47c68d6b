package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastyhouse/backend/internal/middleware"
	"github.com/tastyhouse/backend/internal/service"
)

type CommentHandler struct {
	comments    *service.CommentService
	reports     *service.ReportService
	authService *service.AuthService
}

func NewCommentHandler(comments *service.CommentService, reports *service.ReportService, authService *service.AuthService) *CommentHandler {
	return &CommentHandler{
		comments:    comments,
		reports:     reports,
		authService: authService,
	}
}

type commentRequest struct {
	Body string `json:"body" binding:"required"`
}

type reportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/:id/comments", h.ListComments)
		recipes.POST("/:id/comments", auth, h.CreateComment)
		recipes.POST("/:id/reports", auth, h.ReportRecipe)
	}
	router.DELETE("/comments/:id", auth, h.DeleteComment)
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	comments, err := h.comments.ListByRecipe(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	comment, err := h.comments.Create(c.Request.Context(), recipeID, userID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}
	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.comments.Delete(c.Request.Context(), commentID, userID, c.GetBool("is_admin")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

func (h *CommentHandler) ReportRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	report, err := h.reports.Create(c.Request.Context(), recipeID, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
