package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/testhelpers"
	"github.com/tastyhouse/backend/internal/types"
)

func noTrack(string) {}

func TestCreateSetKeepsSubmissionOrder(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	blobs := testhelpers.NewFakeBlobStore()
	mgr := NewStepManager(blobs)
	recipeID := uuid.New()

	inputs := []types.StepInput{
		{Description: "Rest the dough", SequenceNumber: 3},
		{Description: "Mix flour and water", SequenceNumber: 1},
		{Description: "Knead", SequenceNumber: 2},
	}
	steps, err := mgr.CreateSet(context.Background(), db, recipeID, inputs, noTrack)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	// Position follows submission order; sequence numbers are stored as
	// given, not used to reorder.
	for i, st := range steps {
		assert.Equal(t, i+1, st.Position)
		assert.Equal(t, inputs[i].SequenceNumber, st.SequenceNumber)
		assert.Equal(t, recipeID, st.RecipeID)
	}

	var stored []models.Step
	require.NoError(t, db.Where("recipe_id = ?", recipeID).Order("position ASC").Find(&stored).Error)
	require.Len(t, stored, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{stored[0].SequenceNumber, stored[1].SequenceNumber, stored[2].SequenceNumber})
}

func TestCreateSetUploadsAndTracksImages(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	blobs := testhelpers.NewFakeBlobStore()
	mgr := NewStepManager(blobs)

	var tracked []string
	inputs := []types.StepInput{
		{Description: "Sear", SequenceNumber: 1, Image: &types.FileUpload{Name: "sear.jpg", ContentType: "image/jpeg", Data: []byte("x")}},
		{Description: "Braise", SequenceNumber: 2},
	}
	steps, err := mgr.CreateSet(context.Background(), db, uuid.New(), inputs, func(url string) {
		tracked = append(tracked, url)
	})
	require.NoError(t, err)

	assert.NotEmpty(t, steps[0].ImageURL)
	assert.Empty(t, steps[1].ImageURL)
	assert.Equal(t, []string{steps[0].ImageURL}, tracked)
	assert.Equal(t, 1, blobs.UploadCount())
}

func TestCreateSetValidation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	mgr := NewStepManager(testhelpers.NewFakeBlobStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		inputs []types.StepInput
	}{
		{"empty set", nil},
		{"blank description", []types.StepInput{{Description: "  ", SequenceNumber: 1}}},
		{"sequence below range", []types.StepInput{{Description: "ok", SequenceNumber: 0}}},
		{"sequence above range", []types.StepInput{{Description: "ok", SequenceNumber: 16}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.CreateSet(ctx, db, uuid.New(), tc.inputs, noTrack)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestMergeSetKeepsCreatesAndDeletes(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	blobs := testhelpers.NewFakeBlobStore()
	mgr := NewStepManager(blobs)
	recipeID := uuid.New()
	ctx := context.Background()

	initial, err := mgr.CreateSet(ctx, db, recipeID, []types.StepInput{
		{Description: "Chop", SequenceNumber: 1, Image: &types.FileUpload{Name: "chop.jpg", ContentType: "image/jpeg", Data: []byte("x")}},
		{Description: "Fry", SequenceNumber: 2},
		{Description: "Serve", SequenceNumber: 3},
	}, noTrack)
	require.NoError(t, err)

	// Keep Serve and Fry (reversed), drop Chop, add one new step.
	merged, removedImages, err := mgr.MergeSet(ctx, db, recipeID, []types.StepInput{
		{ID: &initial[2].ID},
		{ID: &initial[1].ID},
		{Description: "Garnish", SequenceNumber: 4},
	}, noTrack)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	assert.Equal(t, initial[2].ID, merged[0].ID)
	assert.Equal(t, initial[1].ID, merged[1].ID)
	assert.Equal(t, "Garnish", merged[2].Description)
	for i, st := range merged {
		assert.Equal(t, i+1, st.Position)
	}

	// The dropped step's row is gone now; its image is reported for
	// post-commit cleanup rather than deleted here.
	var count int64
	require.NoError(t, db.Model(&models.Step{}).Where("recipe_id = ?", recipeID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, []string{initial[0].ImageURL}, removedImages)
	assert.Equal(t, 0, blobs.DeleteCount())

	var stored []models.Step
	require.NoError(t, db.Where("recipe_id = ?", recipeID).Order("position ASC").Find(&stored).Error)
	assert.Equal(t, initial[2].ID, stored[0].ID)
	assert.Equal(t, initial[1].ID, stored[1].ID)
}

func TestMergeSetRejectsForeignStep(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	mgr := NewStepManager(testhelpers.NewFakeBlobStore())
	ctx := context.Background()

	recipeID := uuid.New()
	_, err := mgr.CreateSet(ctx, db, recipeID, []types.StepInput{{Description: "Boil", SequenceNumber: 1}}, noTrack)
	require.NoError(t, err)

	foreign := uuid.New()
	_, _, err = mgr.MergeSet(ctx, db, recipeID, []types.StepInput{{ID: &foreign}}, noTrack)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
