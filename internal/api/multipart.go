package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tastyhouse/backend/internal/types"
)

const maxUploadBytes = 64 << 20 // 64 MiB per file

// stepPayload is the wire shape of one entry in the repeated "steps" field.
type stepPayload struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	SequenceNumber int    `json:"sequence_number"`
}

// tagPayload is the wire shape of one entry in the repeated "tags" field.
// Entries are either {"id": "..."} for existing tags or a plain name.
type tagPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// parseRecipeForm decodes the multipart recipe payload. Scalars arrive as
// plain form fields, steps and tags as repeated JSON-encoded fields, and
// media as file parts named image, video and step_image_<n> where n is the
// step's sequence_number.
func parseRecipeForm(c *gin.Context) (*types.RecipeInput, error) {
	input := &types.RecipeInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Ingredients: c.PostFormArray("ingredients"),
	}

	if v := c.PostForm("preparation_time"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("preparation_time must be a number")
		}
		input.PreparationTime = n
	}
	if v := c.PostForm("difficulty_level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("difficulty_level must be a number")
		}
		input.DifficultyLevel = n
	}

	for i, raw := range c.PostFormArray("steps") {
		var p stepPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("steps[%d] is not valid JSON", i)
		}
		step := types.StepInput{
			Description:    p.Description,
			SequenceNumber: p.SequenceNumber,
		}
		if p.ID != "" {
			id, err := uuid.Parse(p.ID)
			if err != nil {
				return nil, fmt.Errorf("steps[%d] has an invalid id", i)
			}
			step.ID = &id
		}
		if file, err := c.FormFile(fmt.Sprintf("step_image_%d", p.SequenceNumber)); err == nil {
			upload, err := readUpload(file)
			if err != nil {
				return nil, err
			}
			step.Image = upload
		}
		input.Steps = append(input.Steps, step)
	}

	for i, raw := range c.PostFormArray("tags") {
		ref, err := parseTagRef(raw)
		if err != nil {
			return nil, fmt.Errorf("tags[%d]: %v", i, err)
		}
		input.Tags = append(input.Tags, ref)
	}

	if file, err := c.FormFile("image"); err == nil {
		upload, err := readUpload(file)
		if err != nil {
			return nil, err
		}
		input.Image = upload
	}
	if file, err := c.FormFile("video"); err == nil {
		upload, err := readUpload(file)
		if err != nil {
			return nil, err
		}
		input.Video = upload
	}

	return input, nil
}

// parseTagRef accepts either a JSON object referencing an existing tag by id
// (or carrying a new name) or a bare tag name.
func parseTagRef(raw string) (types.TagRef, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var p tagPayload
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return types.TagRef{}, fmt.Errorf("invalid tag object")
		}
		if p.ID != "" {
			id, err := uuid.Parse(p.ID)
			if err != nil {
				return types.TagRef{}, fmt.Errorf("invalid tag id")
			}
			return types.TagRef{ID: &id}, nil
		}
		return types.TagRef{Name: p.Name}, nil
	}
	return types.TagRef{Name: trimmed}, nil
}

func readUpload(header *multipart.FileHeader) (*types.FileUpload, error) {
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("file %s exceeds the upload size limit", header.Filename)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s", header.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s", header.Filename)
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, fmt.Errorf("file %s exceeds the upload size limit", header.Filename)
	}

	return &types.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
