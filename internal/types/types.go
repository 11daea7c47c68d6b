package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// FileUpload is a file attachment pulled out of a multipart request.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// StepInput describes one step of a recipe payload. A nil ID means the step
// is new; a non-nil ID refers to an already persisted step that is kept
// as-is on update.
type StepInput struct {
	ID             *uuid.UUID
	Description    string
	SequenceNumber int
	Image          *FileUpload
}

// TagRef is the tagged variant for tag payload entries: Existing(id) when ID
// is set, New(name) otherwise. The HTTP layer decides which one each entry
// is; services never sniff shapes.
type TagRef struct {
	ID   *uuid.UUID
	Name string
}

// RecipeInput is the structured payload for recipe creation and update.
// Update treats the scalar fields, step set and tag set as full replacements.
type RecipeInput struct {
	Title           string
	Description     string
	PreparationTime int
	DifficultyLevel int
	Ingredients     []string
	Image           *FileUpload
	Video           *FileUpload
	Steps           []StepInput
	Tags            []TagRef
}

// TokenClaims are the JWT claims issued on login.
type TokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"is_admin"`
	jwt.RegisteredClaims
}
