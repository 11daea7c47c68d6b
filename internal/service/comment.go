package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/models"
)

// CommentService manages recipe comments and keeps the recipe's
// denormalized comment counter in step.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Create adds a comment to a recipe and bumps its comment counter in the
// same transaction.
func (s *CommentService) Create(ctx context.Context, recipeID, userID uuid.UUID, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, newValidationError("comment body is required")
	}

	comment := &models.Comment{
		RecipeID: recipeID,
		UserID:   userID,
		Body:     body,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id").First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &PersistenceError{Op: "load recipe", Err: err}
		}
		if err := tx.Create(comment).Error; err != nil {
			return &PersistenceError{Op: "create comment", Err: err}
		}
		err := tx.Model(&models.Recipe{}).
			Where("id = ?", recipeID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		if err != nil {
			return &PersistenceError{Op: "increment comment count", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByRecipe returns a recipe's comments with their authors, newest
// first.
func (s *CommentService) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC").
		Preload("User").
		Find(&comments).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list comments", Err: err}
	}
	return comments, nil
}

// Delete removes a comment. Only the author or an admin may delete it; the
// recipe's counter is decremented alongside.
func (s *CommentService) Delete(ctx context.Context, commentID, requesterID uuid.UUID, isAdmin bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &PersistenceError{Op: "load comment", Err: err}
		}
		if comment.UserID != requesterID && !isAdmin {
			return ErrForbidden
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return &PersistenceError{Op: "delete comment", Err: err}
		}
		err := tx.Model(&models.Recipe{}).
			Where("id = ? AND comment_count > 0", comment.RecipeID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
		if err != nil {
			return &PersistenceError{Op: "decrement comment count", Err: err}
		}
		return nil
	})
}
