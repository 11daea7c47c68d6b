package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/storage"
	"github.com/tastyhouse/backend/internal/types"
)

const (
	minPreparationTime = 3
	minDifficulty      = 1
	maxDifficulty      = 10

	defaultPageSize = 20
	maxPageSize     = 100
)

// RecipeService owns the recipe aggregate: creation, update and deletion of
// a recipe together with its steps, tags and the denormalized counters on
// the owning user. Database writes of one operation run in a single
// transaction; blob storage sits outside it, so uploads are compensated
// with best-effort deletes when an operation fails.
type RecipeService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	tags  TagResolver
	steps StepManager
}

// NewRecipeService creates the aggregate writer. Passing nil for tags or
// steps selects the default implementations.
func NewRecipeService(db *gorm.DB, blobs storage.BlobStore, tags TagResolver, steps StepManager) *RecipeService {
	if tags == nil {
		tags = NewTagResolver()
	}
	if steps == nil {
		steps = NewStepManager(blobs)
	}
	return &RecipeService{
		db:    db,
		blobs: blobs,
		tags:  tags,
		steps: steps,
	}
}

type mediaRef struct {
	url  string
	kind storage.Kind
}

// uploadTracker accumulates every URL an operation uploaded so a failure
// can roll all of them back. Uploads run concurrently, hence the lock.
type uploadTracker struct {
	mu   sync.Mutex
	urls []mediaRef
}

func (t *uploadTracker) add(url string, kind storage.Kind) {
	if url == "" {
		return
	}
	t.mu.Lock()
	t.urls = append(t.urls, mediaRef{url: url, kind: kind})
	t.mu.Unlock()
}

func (t *uploadTracker) addImage(url string) {
	t.add(url, storage.KindImage)
}

// Create uploads the recipe media, then persists the recipe, its steps, its
// tags and the owner bookkeeping in one transaction. On any failure every
// already-uploaded asset is deleted (best effort) and the original error is
// returned.
func (s *RecipeService) Create(ctx context.Context, input *types.RecipeInput, ownerID uuid.UUID) (*models.Recipe, error) {
	if input.Image == nil {
		return nil, newValidationError("recipe image is required")
	}
	if err := validateRecipeScalars(input); err != nil {
		return nil, err
	}
	if len(input.Steps) == 0 {
		return nil, newValidationError("at least one step is required")
	}
	if len(input.Tags) == 0 {
		return nil, newValidationError("at least one tag is required")
	}

	uploaded := &uploadTracker{}
	recipe, err := s.create(ctx, input, ownerID, uploaded)
	if err != nil {
		s.deleteBlobs(ctx, uploaded.urls)
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) create(ctx context.Context, input *types.RecipeInput, ownerID uuid.UUID, uploaded *uploadTracker) (*models.Recipe, error) {
	var imageURL, videoURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.blobs.Upload(gctx, input.Image, storage.KindImage)
		if err != nil {
			return &UploadError{Asset: "recipe image", Err: err}
		}
		if url == "" {
			return &UploadError{Asset: "recipe image"}
		}
		uploaded.add(url, storage.KindImage)
		imageURL = url
		return nil
	})
	if input.Video != nil {
		g.Go(func() error {
			url, err := s.blobs.Upload(gctx, input.Video, storage.KindVideo)
			if err != nil {
				return &UploadError{Asset: "recipe video", Err: err}
			}
			if url == "" {
				return &UploadError{Asset: "recipe video"}
			}
			uploaded.add(url, storage.KindVideo)
			videoURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		ID:              uuid.New(),
		Title:           input.Title,
		Description:     input.Description,
		ImageURL:        imageURL,
		VideoURL:        videoURL,
		PreparationTime: input.PreparationTime,
		DifficultyLevel: input.DifficultyLevel,
		Ingredients:     models.JSONBStringArray(input.Ingredients),
		Embedding:       GenerateEmbedding(input.Title + " " + input.Description),
		UserID:          ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return &PersistenceError{Op: "insert recipe", Err: err}
		}

		steps, err := s.steps.CreateSet(ctx, tx, recipe.ID, input.Steps, uploaded.addImage)
		if err != nil {
			return err
		}
		recipe.Steps = steps

		tags, err := s.tags.Resolve(ctx, tx, recipe.ID, input.Tags)
		if err != nil {
			return err
		}
		recipe.Tags = tags

		res := tx.Model(&models.User{}).
			Where("id = ?", ownerID).
			UpdateColumn("recipe_count", gorm.Expr("recipe_count + 1"))
		if res.Error != nil {
			return &PersistenceError{Op: "update owner recipe count", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &ValidationError{Msg: "recipe owner does not exist"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update replaces the recipe's scalar fields, step set and tag set from the
// payload and swaps in newly uploaded media. Replaced media and the images
// of dropped steps are deleted after the transaction commits; replacement
// uploads are not rolled back if a later step fails.
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, input *types.RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeScalars(input); err != nil {
		return nil, err
	}
	if len(input.Steps) == 0 {
		return nil, newValidationError("at least one step is required")
	}
	if len(input.Tags) == 0 {
		return nil, newValidationError("at least one tag is required")
	}

	var recipe models.Recipe
	var replaced []mediaRef
	var removedImages []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &PersistenceError{Op: "load recipe", Err: err}
		}

		g, gctx := errgroup.WithContext(ctx)
		var newImageURL, newVideoURL string
		if input.Image != nil {
			g.Go(func() error {
				url, err := s.blobs.Upload(gctx, input.Image, storage.KindImage)
				if err != nil {
					return &UploadError{Asset: "recipe image", Err: err}
				}
				if url == "" {
					return &UploadError{Asset: "recipe image"}
				}
				newImageURL = url
				return nil
			})
		}
		if input.Video != nil {
			g.Go(func() error {
				url, err := s.blobs.Upload(gctx, input.Video, storage.KindVideo)
				if err != nil {
					return &UploadError{Asset: "recipe video", Err: err}
				}
				if url == "" {
					return &UploadError{Asset: "recipe video"}
				}
				newVideoURL = url
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if newImageURL != "" {
			replaced = append(replaced, mediaRef{url: recipe.ImageURL, kind: storage.KindImage})
			recipe.ImageURL = newImageURL
		}
		if newVideoURL != "" {
			if recipe.VideoURL != "" {
				replaced = append(replaced, mediaRef{url: recipe.VideoURL, kind: storage.KindVideo})
			}
			recipe.VideoURL = newVideoURL
		}

		steps, removed, err := s.steps.MergeSet(ctx, tx, recipe.ID, input.Steps, func(string) {})
		if err != nil {
			return err
		}
		removedImages = removed
		recipe.Steps = steps

		tags, err := s.tags.Resolve(ctx, tx, recipe.ID, input.Tags)
		if err != nil {
			return err
		}
		recipe.Tags = tags

		// Full replace, not a partial patch.
		recipe.Title = input.Title
		recipe.Description = input.Description
		recipe.Ingredients = models.JSONBStringArray(input.Ingredients)
		recipe.PreparationTime = input.PreparationTime
		recipe.DifficultyLevel = input.DifficultyLevel
		recipe.Embedding = GenerateEmbedding(input.Title + " " + input.Description)

		if err := tx.Omit(clause.Associations).Save(&recipe).Error; err != nil {
			return &PersistenceError{Op: "save recipe", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cleanup := replaced
	for _, url := range removedImages {
		cleanup = append(cleanup, mediaRef{url: url, kind: storage.KindImage})
	}
	s.deleteBlobs(ctx, cleanup)

	return &recipe, nil
}

// Destroy deletes the recipe together with its steps, join rows, saves and
// comments, decrements the owner's recipe count, and then deletes the
// recipe's media from blob storage (best effort, concurrently). It returns
// the recipe as it existed immediately before deletion.
func (s *RecipeService) Destroy(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var snapshot models.Recipe

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Steps", stepOrder).Preload("Tags").First(&snapshot, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &PersistenceError{Op: "load recipe", Err: err}
		}

		// Recipe row first so a reader never sees a live recipe whose
		// dependents are mid-teardown.
		if err := tx.Delete(&models.Recipe{}, "id = ?", id).Error; err != nil {
			return &PersistenceError{Op: "delete recipe", Err: err}
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return &PersistenceError{Op: "detach tags", Err: err}
		}
		res := tx.Model(&models.User{}).
			Where("id = ? AND recipe_count > 0", snapshot.UserID).
			UpdateColumn("recipe_count", gorm.Expr("recipe_count - 1"))
		if res.Error != nil {
			return &PersistenceError{Op: "update owner recipe count", Err: res.Error}
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Step{}).Error; err != nil {
			return &PersistenceError{Op: "delete steps", Err: err}
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeSave{}).Error; err != nil {
			return &PersistenceError{Op: "delete saves", Err: err}
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return &PersistenceError{Op: "delete comments", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	media := []mediaRef{{url: snapshot.ImageURL, kind: storage.KindImage}}
	if snapshot.VideoURL != "" {
		media = append(media, mediaRef{url: snapshot.VideoURL, kind: storage.KindVideo})
	}
	for _, st := range snapshot.Steps {
		if st.ImageURL != "" {
			media = append(media, mediaRef{url: st.ImageURL, kind: storage.KindImage})
		}
	}
	s.deleteBlobs(ctx, media)

	return &snapshot, nil
}

// deleteBlobs is compensation/cleanup: failures are logged by the store and
// swallowed here so the primary result is never masked.
func (s *RecipeService) deleteBlobs(ctx context.Context, refs []mediaRef) {
	var wg sync.WaitGroup
	for _, ref := range refs {
		if ref.url == "" {
			continue
		}
		wg.Add(1)
		go func(ref mediaRef) {
			defer wg.Done()
			if err := s.blobs.Delete(ctx, ref.url, ref.kind); err != nil {
				logCleanupFailure(ref.url, err)
			}
		}(ref)
	}
	wg.Wait()
}

func validateRecipeScalars(input *types.RecipeInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return newValidationError("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return newValidationError("description is required")
	}
	if input.PreparationTime < minPreparationTime {
		return newValidationError("preparation time must be at least %d minutes", minPreparationTime)
	}
	if input.DifficultyLevel < minDifficulty || input.DifficultyLevel > maxDifficulty {
		return newValidationError("difficulty level must be between %d and %d", minDifficulty, maxDifficulty)
	}
	if len(input.Ingredients) == 0 {
		return newValidationError("at least one ingredient is required")
	}
	return nil
}
