package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/testhelpers"
)

func TestFollowAndUnfollow(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()

	maya := seedUser(t, db, "maya@example.com")
	kyaw := seedUser(t, db, "kyaw@example.com")

	require.NoError(t, svc.Follow(ctx, maya.ID, kyaw.ID))
	// Following twice is a no-op, not an error.
	require.NoError(t, svc.Follow(ctx, maya.ID, kyaw.ID))

	followers, err := svc.Followers(ctx, kyaw.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, maya.ID, followers[0].ID)

	following, err := svc.Following(ctx, maya.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, kyaw.ID, following[0].ID)

	require.NoError(t, svc.Unfollow(ctx, maya.ID, kyaw.ID))
	followers, err = svc.Followers(ctx, kyaw.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestFollowValidation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()

	maya := seedUser(t, db, "maya@example.com")

	err := svc.Follow(ctx, maya.ID, maya.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	err = svc.Follow(ctx, maya.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndUnsaveRecipe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()

	owner := seedUser(t, db, "maya@example.com")
	saver := seedUser(t, db, "kyaw@example.com")
	recipe := seedRecipe(t, db, owner.ID)

	require.NoError(t, svc.SaveRecipe(ctx, saver.ID, recipe.ID))
	require.NoError(t, svc.SaveRecipe(ctx, saver.ID, recipe.ID))

	saved, err := svc.SavedRecipes(ctx, saver.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, recipe.ID, saved[0].ID)

	require.NoError(t, svc.UnsaveRecipe(ctx, saver.ID, recipe.ID))
	saved, err = svc.SavedRecipes(ctx, saver.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSaveUnknownRecipe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewProfileService(db)

	saver := seedUser(t, db, "kyaw@example.com")
	err := svc.SaveRecipe(context.Background(), saver.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	var saveCount int64
	require.NoError(t, db.Model(&models.RecipeSave{}).Count(&saveCount).Error)
	assert.Zero(t, saveCount)
}
