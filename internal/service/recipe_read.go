package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastyhouse/backend/internal/models"
)

// RecipeFilter narrows and orders recipe listings.
type RecipeFilter struct {
	Tag        string
	Difficulty int
	Sort       string // "latest" (default) or "views"
	Page       int
	Limit      int
}

func stepOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func logCleanupFailure(url string, err error) {
	log.Printf("[RecipeService] media cleanup failed for %s: %v", url, err)
}

// Get returns the recipe with its steps (in submission order), tags and
// owner populated.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Steps", stepOrder).
		Preload("Tags").
		Preload("User").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load recipe", Err: err}
	}
	return &recipe, nil
}

// List returns a page of recipes plus the total match count.
func (s *RecipeService) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.Tag != "" {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.name = ?", NormalizeTagName(filter.Tag))
	}
	if filter.Difficulty > 0 {
		query = query.Where("difficulty_level = ?", filter.Difficulty)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count recipes", Err: err}
	}

	switch filter.Sort {
	case "views":
		query = query.Order("views DESC")
	default:
		query = query.Order("created_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var recipes []models.Recipe
	err := query.
		Preload("Tags").
		Preload("User").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list recipes", Err: err}
	}
	return recipes, total, nil
}

// ListByUser returns a user's recipes, newest first.
func (s *RecipeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Preload("Tags").
		Find(&recipes).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list user recipes", Err: err}
	}
	return recipes, nil
}

// Latest returns the n most recently created recipes.
func (s *RecipeService) Latest(ctx context.Context, n int) ([]models.Recipe, error) {
	return s.topN(ctx, "created_at DESC", n)
}

// MostViewed returns the n recipes with the highest view counters.
func (s *RecipeService) MostViewed(ctx context.Context, n int) ([]models.Recipe, error) {
	return s.topN(ctx, "views DESC", n)
}

func (s *RecipeService) topN(ctx context.Context, order string, n int) ([]models.Recipe, error) {
	if n <= 0 {
		n = 5
	}
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Order(order).
		Limit(n).
		Preload("Tags").
		Preload("User").
		Find(&recipes).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list recipes", Err: err}
	}
	return recipes, nil
}

// Search orders by embedding distance on Postgres and falls back to a
// keyword match elsewhere.
func (s *RecipeService) Search(ctx context.Context, query string, limit int) ([]models.Recipe, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	dbQuery := s.db.WithContext(ctx)
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
		if s.db.Dialector.Name() == "postgres" {
			vec := GenerateEmbedding(query)
			dbQuery = dbQuery.Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
			})
		}
	}

	var recipes []models.Recipe
	if err := dbQuery.Limit(limit).Preload("Tags").Find(&recipes).Error; err != nil {
		return nil, &PersistenceError{Op: "search recipes", Err: err}
	}
	return recipes, nil
}

// AddView atomically increments the view counter and returns the updated
// recipe.
func (s *RecipeService) AddView(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	res := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return nil, &PersistenceError{Op: "increment views", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}
