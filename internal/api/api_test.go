package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/models"
	"github.com/tastyhouse/backend/internal/testhelpers"
)

const testJWTSecret = "test-jwt-secret"

func setupTestAPI(t *testing.T) (*gin.Engine, *gorm.DB, *testhelpers.FakeBlobStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	blobs := testhelpers.NewFakeBlobStore()

	router := gin.New()
	SetupAPI(router, db, blobs, nil, testJWTSecret)
	return router, db, blobs
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, name, email string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "longenoughpassword",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// recipeForm builds the multipart payload the create and update endpoints
// expect.
func recipeForm(t *testing.T, withVideo bool) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fields := map[string]string{
		"title":            "Mohinga",
		"description":      "Rice noodles in a fish broth.",
		"preparation_time": "45",
		"difficulty_level": "4",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, ing := range []string{"rice noodles", "catfish", "lemongrass"} {
		require.NoError(t, mw.WriteField("ingredients", ing))
	}
	steps := []string{
		`{"description":"Simmer the broth","sequence_number":3}`,
		`{"description":"Soak the noodles","sequence_number":1}`,
		`{"description":"Assemble and serve","sequence_number":2}`,
	}
	for _, s := range steps {
		require.NoError(t, mw.WriteField("steps", s))
	}
	require.NoError(t, mw.WriteField("tags", "Soup"))
	require.NoError(t, mw.WriteField("tags", `{"name":"breakfast"}`))

	img, err := mw.CreateFormFile("image", "mohinga.jpg")
	require.NoError(t, err)
	_, err = img.Write([]byte("fake image bytes"))
	require.NoError(t, err)

	stepImg, err := mw.CreateFormFile("step_image_1", "broth.jpg")
	require.NoError(t, err)
	_, err = stepImg.Write([]byte("fake step image"))
	require.NoError(t, err)

	if withVideo {
		vid, err := mw.CreateFormFile("video", "mohinga.mp4")
		require.NoError(t, err)
		_, err = vid.Write([]byte("fake video bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func createRecipe(t *testing.T, router *gin.Engine, token string) models.Recipe {
	t.Helper()
	body, contentType := recipeForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))
	return recipe
}

func TestCreateAndGetRecipeOverHTTP(t *testing.T) {
	router, _, blobs := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")

	recipe := createRecipe(t, router, token)
	assert.Equal(t, "Mohinga", recipe.Title)
	assert.NotEmpty(t, recipe.ImageURL)
	require.Len(t, recipe.Steps, 3)
	assert.Equal(t, 3, recipe.Steps[0].SequenceNumber)
	// step_image_1 belongs to the step with sequence_number 1, which was
	// submitted second.
	assert.Empty(t, recipe.Steps[0].ImageURL)
	assert.Equal(t, 1, recipe.Steps[1].SequenceNumber)
	assert.NotEmpty(t, recipe.Steps[1].ImageURL)
	assert.Len(t, recipe.Tags, 2)
	assert.Equal(t, 2, blobs.UploadCount())

	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mohinga")
}

func TestStepImageKeyedBySequenceNumber(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range map[string]string{
		"title":            "Tea leaf salad",
		"description":      "Fermented tea leaves with crunchy beans.",
		"preparation_time": "20",
		"difficulty_level": "2",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.WriteField("ingredients", "tea leaves"))
	// Submission order differs from sequence numbering on purpose.
	require.NoError(t, mw.WriteField("steps", `{"description":"Toss and serve","sequence_number":3}`))
	require.NoError(t, mw.WriteField("steps", `{"description":"Rinse the leaves","sequence_number":1}`))
	require.NoError(t, mw.WriteField("tags", "Salad"))

	img, err := mw.CreateFormFile("image", "salad.jpg")
	require.NoError(t, err)
	_, err = img.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	stepImg, err := mw.CreateFormFile("step_image_1", "rinse.jpg")
	require.NoError(t, err)
	_, err = stepImg.Write([]byte("fake step image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe models.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))
	require.Len(t, recipe.Steps, 2)
	assert.Equal(t, 3, recipe.Steps[0].SequenceNumber)
	assert.Empty(t, recipe.Steps[0].ImageURL)
	assert.Equal(t, 1, recipe.Steps[1].SequenceNumber)
	assert.NotEmpty(t, recipe.Steps[1].ImageURL)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	router, _, _ := setupTestAPI(t)

	body, contentType := recipeForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationOverHTTP(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")

	// No image part at all.
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("title", "Mohinga"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRecipeForbiddenForNonOwner(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	ownerToken := registerAndLogin(t, router, "Maya", "maya@example.com")
	otherToken := registerAndLogin(t, router, "Kyaw", "kyaw@example.com")

	recipe := createRecipe(t, router, ownerToken)

	body, contentType := recipeForm(t, false)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/recipes/"+recipe.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteRecipeByOwner(t *testing.T) {
	router, db, _ := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")
	recipe := createRecipe(t, router, token)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/recipes/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentFlowOverHTTP(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	ownerToken := registerAndLogin(t, router, "Maya", "maya@example.com")
	commenterToken := registerAndLogin(t, router, "Kyaw", "kyaw@example.com")
	recipe := createRecipe(t, router, ownerToken)

	path := fmt.Sprintf("/api/v1/recipes/%s/comments", recipe.ID)
	w := doJSON(t, router, http.MethodPost, path, commenterToken, gin.H{"body": "Looks great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Looks great")

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"comment_count":1`)
}

func TestViewsEndpoint(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")
	recipe := createRecipe(t, router, token)

	path := fmt.Sprintf("/api/v1/recipes/%s/views", recipe.ID)
	w := doJSON(t, router, http.MethodPost, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"views":2`)
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	router, db, _ := setupTestAPI(t)
	token := registerAndLogin(t, router, "Maya", "maya@example.com")

	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Promote and log in again so the token carries the admin flag.
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "maya@example.com").UpdateColumn("is_admin", true).Error)
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "maya@example.com",
		"password": "longenoughpassword",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, router, http.MethodGet, "/api/v1/admin/stats", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"users":1`))
}

func TestSaveAndFollowOverHTTP(t *testing.T) {
	router, _, _ := setupTestAPI(t)
	ownerToken := registerAndLogin(t, router, "Maya", "maya@example.com")
	saverToken := registerAndLogin(t, router, "Kyaw", "kyaw@example.com")
	recipe := createRecipe(t, router, ownerToken)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/save", recipe.ID), saverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/me/saved", saverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mohinga")

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/users/%s/follow", recipe.UserID), saverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/users/%s/followers", recipe.UserID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kyaw")
}
