package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastyhouse/backend/internal/models"
)

// ProfileService covers the social surface around users: follows, saved
// recipes, and profile lookups.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Follow makes follower follow followee. Following twice is a no-op.
func (s *ProfileService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return newValidationError("cannot follow yourself")
	}
	if err := s.requireUser(ctx, followeeID); err != nil {
		return err
	}

	follow := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow).Error
	if err != nil {
		return &PersistenceError{Op: "create follow", Err: err}
	}
	return nil
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return &PersistenceError{Op: "delete follow", Err: err}
	}
	return nil
}

// Followers returns the users following the given user.
func (s *ProfileService) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list followers", Err: err}
	}
	return users, nil
}

// Following returns the users the given user follows.
func (s *ProfileService) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list following", Err: err}
	}
	return users, nil
}

// SaveRecipe adds a recipe to the user's saved list. Saving twice is a
// no-op.
func (s *ProfileService) SaveRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "load recipe", Err: err}
	}

	save := models.RecipeSave{UserID: userID, RecipeID: recipeID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&save).Error
	if err != nil {
		return &PersistenceError{Op: "create save", Err: err}
	}
	return nil
}

func (s *ProfileService) UnsaveRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.RecipeSave{}).Error
	if err != nil {
		return &PersistenceError{Op: "delete save", Err: err}
	}
	return nil
}

// SavedRecipes returns the user's saved recipes, most recently saved first.
func (s *ProfileService) SavedRecipes(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Joins("JOIN recipe_saves ON recipe_saves.recipe_id = recipes.id").
		Where("recipe_saves.user_id = ?", userID).
		Order("recipe_saves.created_at DESC").
		Preload("Tags").
		Find(&recipes).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list saved recipes", Err: err}
	}
	return recipes, nil
}

func (s *ProfileService) requireUser(ctx context.Context, id uuid.UUID) error {
	var user models.User
	err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "load user", Err: err}
	}
	return nil
}
