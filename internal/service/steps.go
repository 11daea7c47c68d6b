package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/storage"
	"github.com/tastyhouse/backend/internal/types"
)

const (
	minSequenceNumber = 1
	maxSequenceNumber = 15
)

// StepManager persists the step set of a recipe. The submitted order is
// authoritative (stored in Position); sequence_number is stored data, not a
// sort key. track is called with every uploaded image URL so the caller can
// compensate on failure.
type StepManager interface {
	// CreateSet builds and persists all steps of a new recipe.
	CreateSet(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, inputs []types.StepInput, track func(url string)) ([]models.Step, error)

	// MergeSet keeps the submitted steps that carry a persisted id, creates
	// the ones that do not, and deletes the steps omitted from the payload.
	// It returns the final ordered set and the image URLs of the deleted
	// steps for post-commit cleanup.
	MergeSet(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, inputs []types.StepInput, track func(url string)) ([]models.Step, []string, error)
}

type stepManager struct {
	blobs storage.BlobStore
}

func NewStepManager(blobs storage.BlobStore) StepManager {
	return &stepManager{blobs: blobs}
}

func (m *stepManager) CreateSet(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, inputs []types.StepInput, track func(url string)) ([]models.Step, error) {
	if len(inputs) == 0 {
		return nil, newValidationError("at least one step is required")
	}

	steps := make([]models.Step, len(inputs))
	for i, in := range inputs {
		if err := validateStepInput(&in); err != nil {
			return nil, err
		}
		imageURL, err := m.uploadStepImage(ctx, &in, track)
		if err != nil {
			return nil, err
		}
		steps[i] = models.Step{
			ID:             uuid.New(),
			RecipeID:       recipeID,
			Description:    in.Description,
			SequenceNumber: in.SequenceNumber,
			Position:       i + 1,
			ImageURL:       imageURL,
		}
	}

	if err := tx.WithContext(ctx).Create(&steps).Error; err != nil {
		return nil, &PersistenceError{Op: "insert steps", Err: err}
	}
	return steps, nil
}

func (m *stepManager) MergeSet(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, inputs []types.StepInput, track func(url string)) ([]models.Step, []string, error) {
	if len(inputs) == 0 {
		return nil, nil, newValidationError("at least one step is required")
	}

	var existing []models.Step
	if err := tx.WithContext(ctx).Where("recipe_id = ?", recipeID).Find(&existing).Error; err != nil {
		return nil, nil, &PersistenceError{Op: "load steps", Err: err}
	}
	byID := make(map[uuid.UUID]models.Step, len(existing))
	for _, st := range existing {
		byID[st.ID] = st
	}

	kept := make(map[uuid.UUID]bool)
	result := make([]models.Step, 0, len(inputs))
	for i, in := range inputs {
		position := i + 1

		if in.ID != nil {
			st, ok := byID[*in.ID]
			if !ok {
				return nil, nil, newValidationError("step %s does not belong to this recipe", *in.ID)
			}
			if st.Position != position {
				err := tx.WithContext(ctx).Model(&models.Step{}).
					Where("id = ?", st.ID).
					UpdateColumn("position", position).Error
				if err != nil {
					return nil, nil, &PersistenceError{Op: "reorder step", Err: err}
				}
				st.Position = position
			}
			kept[st.ID] = true
			result = append(result, st)
			continue
		}

		if err := validateStepInput(&in); err != nil {
			return nil, nil, err
		}
		imageURL, err := m.uploadStepImage(ctx, &in, track)
		if err != nil {
			return nil, nil, err
		}
		st := models.Step{
			ID:             uuid.New(),
			RecipeID:       recipeID,
			Description:    in.Description,
			SequenceNumber: in.SequenceNumber,
			Position:       position,
			ImageURL:       imageURL,
		}
		if err := tx.WithContext(ctx).Create(&st).Error; err != nil {
			return nil, nil, &PersistenceError{Op: "insert step", Err: err}
		}
		result = append(result, st)
	}

	// Steps omitted from the payload are dropped from the recipe; their
	// rows go now, their images after the surrounding commit.
	var removedIDs []uuid.UUID
	var removedImages []string
	for _, st := range existing {
		if kept[st.ID] {
			continue
		}
		removedIDs = append(removedIDs, st.ID)
		if st.ImageURL != "" {
			removedImages = append(removedImages, st.ImageURL)
		}
	}
	if len(removedIDs) > 0 {
		if err := tx.WithContext(ctx).Where("id IN ?", removedIDs).Delete(&models.Step{}).Error; err != nil {
			return nil, nil, &PersistenceError{Op: "delete omitted steps", Err: err}
		}
	}

	return result, removedImages, nil
}

func (m *stepManager) uploadStepImage(ctx context.Context, in *types.StepInput, track func(url string)) (string, error) {
	if in.Image == nil {
		return "", nil
	}
	asset := fmt.Sprintf("step %d image", in.SequenceNumber)
	url, err := m.blobs.Upload(ctx, in.Image, storage.KindImage)
	if err != nil {
		return "", &UploadError{Asset: asset, Err: err}
	}
	if url == "" {
		return "", &UploadError{Asset: asset}
	}
	track(url)
	return url, nil
}

func validateStepInput(in *types.StepInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return newValidationError("step description is required")
	}
	if in.SequenceNumber < minSequenceNumber || in.SequenceNumber > maxSequenceNumber {
		return newValidationError("step sequence number must be between %d and %d", minSequenceNumber, maxSequenceNumber)
	}
	return nil
}
