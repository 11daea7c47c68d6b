package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/testhelpers"
)

func seedRecipe(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Title:           "Coconut rice",
		Description:     "Rice cooked in coconut milk.",
		ImageURL:        "https://test-bucket.s3.amazonaws.com/test/images/rice.jpg",
		PreparationTime: 30,
		DifficultyLevel: 2,
		Ingredients:     models.JSONBStringArray{"rice", "coconut milk"},
		Embedding:       GenerateEmbedding("Coconut rice"),
		UserID:          ownerID,
	}
	require.NoError(t, db.Create(recipe).Error)
	return recipe
}

func TestCommentCreateBumpsCounter(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	commenter := seedUser(t, db, "kyaw@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	comment, err := svc.Create(ctx, recipe.ID, commenter.ID, "Delicious!")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, comment.ID)

	_, err = svc.Create(ctx, recipe.ID, owner.ID, "Thanks!")
	require.NoError(t, err)

	var fresh models.Recipe
	require.NoError(t, db.First(&fresh, "id = ?", recipe.ID).Error)
	assert.Equal(t, int64(2), fresh.CommentCount)
}

func TestCommentCreateValidation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	_, err := svc.Create(ctx, recipe.ID, owner.ID, "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, uuid.New(), owner.ID, "hello")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommentListNewestFirst(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	_, err := svc.Create(ctx, recipe.ID, owner.ID, "first")
	require.NoError(t, err)
	_, err = svc.Create(ctx, recipe.ID, owner.ID, "second")
	require.NoError(t, err)

	comments, err := svc.ListByRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "Maya", comments[0].User.Name)
}

func TestCommentDelete(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	commenter := seedUser(t, db, "kyaw@example.com")
	stranger := seedUser(t, db, "zaw@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	comment, err := svc.Create(ctx, recipe.ID, commenter.ID, "Delicious!")
	require.NoError(t, err)

	// Neither a stranger nor the recipe owner may delete someone else's
	// comment without the admin flag.
	err = svc.Delete(ctx, comment.ID, stranger.ID, false)
	require.ErrorIs(t, err, ErrForbidden)
	err = svc.Delete(ctx, comment.ID, owner.ID, false)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, comment.ID, commenter.ID, false))

	var fresh models.Recipe
	require.NoError(t, db.First(&fresh, "id = ?", recipe.ID).Error)
	assert.Equal(t, int64(0), fresh.CommentCount)

	err = svc.Delete(ctx, comment.ID, commenter.ID, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommentDeleteAsAdmin(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewCommentService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	commenter := seedUser(t, db, "kyaw@example.com")
	admin := seedUser(t, db, "admin@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	comment, err := svc.Create(ctx, recipe.ID, commenter.ID, "Delicious!")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, comment.ID, admin.ID, true))
}
