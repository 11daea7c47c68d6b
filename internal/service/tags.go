package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/types"
)

// TagResolver turns the tag payload of a recipe write into the final set of
// tag rows attached to the recipe, creating missing tags lazily.
type TagResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, refs []types.TagRef) ([]models.Tag, error)
}

type tagResolver struct{}

func NewTagResolver() TagResolver {
	return &tagResolver{}
}

// NormalizeTagName trims, collapses internal whitespace and lower-cases a
// free-text tag name. Exactly one Tag row exists per normalized name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Resolve normalizes and de-duplicates the candidate names, verifies the
// entries that reference existing tags, inserts the missing ones (racing
// creators converge on the unique name index) and syncs the recipe_tags
// join rows to exactly the resolved set.
func (r *tagResolver) Resolve(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, refs []types.TagRef) ([]models.Tag, error) {
	if len(refs) == 0 {
		return nil, newValidationError("at least one tag is required")
	}

	var ids []uuid.UUID
	var names []string
	seenIDs := make(map[uuid.UUID]bool)
	seenNames := make(map[string]bool)
	for _, ref := range refs {
		if ref.ID != nil {
			if !seenIDs[*ref.ID] {
				seenIDs[*ref.ID] = true
				ids = append(ids, *ref.ID)
			}
			continue
		}
		name := NormalizeTagName(ref.Name)
		if name == "" {
			return nil, newValidationError("tag name must not be empty")
		}
		if !seenNames[name] {
			seenNames[name] = true
			names = append(names, name)
		}
	}

	resolved := make([]models.Tag, 0, len(ids)+len(names))

	if len(ids) > 0 {
		var existing []models.Tag
		if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&existing).Error; err != nil {
			return nil, &PersistenceError{Op: "load tags by id", Err: err}
		}
		if len(existing) != len(ids) {
			return nil, newValidationError("tag payload references an unknown tag")
		}
		resolved = append(resolved, existing...)
	}

	if len(names) > 0 {
		candidates := make([]models.Tag, len(names))
		for i, name := range names {
			candidates[i] = models.Tag{ID: uuid.New(), Name: name}
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&candidates).Error
		if err != nil {
			return nil, &PersistenceError{Op: "insert tags", Err: err}
		}

		// Re-select so rows that lost the conflict race come back with
		// their persisted ids.
		var byName []models.Tag
		if err := tx.WithContext(ctx).Where("name IN ?", names).Find(&byName).Error; err != nil {
			return nil, &PersistenceError{Op: "load tags by name", Err: err}
		}
		for _, tag := range byName {
			if !seenIDs[tag.ID] {
				seenIDs[tag.ID] = true
				resolved = append(resolved, tag)
			}
		}
	}

	if err := r.syncJoins(ctx, tx, recipeID, resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// syncJoins makes recipe_tags hold exactly one row per resolved tag for
// this recipe: attach the resolved set, pull everything else.
func (r *tagResolver) syncJoins(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, tags []models.Tag) error {
	tagIDs := make([]uuid.UUID, len(tags))
	joins := make([]models.RecipeTag, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
		joins[i] = models.RecipeTag{RecipeID: recipeID, TagID: tag.ID}
	}

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&joins).Error
	if err != nil {
		return &PersistenceError{Op: "attach recipe to tags", Err: err}
	}

	err = tx.WithContext(ctx).
		Where("recipe_id = ? AND tag_id NOT IN ?", recipeID, tagIDs).
		Delete(&models.RecipeTag{}).Error
	if err != nil {
		return &PersistenceError{Op: "detach stale tags", Err: err}
	}
	return nil
}
