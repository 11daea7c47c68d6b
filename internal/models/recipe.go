package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Recipe is the aggregate root. Steps are exclusively owned by the recipe,
// tags are shared with other recipes through the recipe_tags join table.
type Recipe struct {
	ID              uuid.UUID        `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Description     string           `gorm:"type:text;not null" json:"description"`
	ImageURL        string           `gorm:"size:255;not null" json:"image_url"`
	VideoURL        string           `gorm:"size:255" json:"video_url,omitempty"`
	PreparationTime int              `gorm:"not null" json:"preparation_time"`
	DifficultyLevel int              `gorm:"not null;check:difficulty_level >= 1 AND difficulty_level <= 10" json:"difficulty_level"`
	Ingredients     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Views           int64            `gorm:"not null;default:0" json:"views"`
	CommentCount    int64            `gorm:"not null;default:0" json:"comment_count"`
	Embedding       pgvector.Vector  `gorm:"type:vector(3)" json:"-"`
	UserID          uuid.UUID        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User            *User            `json:"user,omitempty"`
	Steps           []Step           `gorm:"foreignKey:RecipeID" json:"steps,omitempty"`
	Tags            []Tag            `gorm:"many2many:recipe_tags" json:"tags,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Step belongs to exactly one recipe and is never reassigned. Position is
// the submission order within the recipe and is the read-side sort key;
// SequenceNumber is caller-supplied data and is stored as-is.
type Step struct {
	ID             uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	RecipeID       uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"recipe_id"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	SequenceNumber int            `gorm:"not null;check:sequence_number >= 1 AND sequence_number <= 15" json:"sequence_number"`
	Position       int            `gorm:"not null" json:"position"`
	ImageURL       string         `gorm:"size:255" json:"image_url,omitempty"`
}

func (s *Step) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Tag names are stored normalized (trimmed, inner whitespace collapsed,
// lower-cased). The unique index makes concurrent resolution of the same
// new name converge on a single row.
type Tag struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Recipes   []Recipe  `gorm:"many2many:recipe_tags" json:"-"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// RecipeTag maps onto the many2many join table behind Recipe.Tags so the
// writer can attach and pull rows directly.
type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"recipe_id"`
	TagID    uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"tag_id"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Recipe{},
		&Step{},
		&RecipeTag{},
		&Comment{},
		&Report{},
		&Follow{},
		&RecipeSave{},
	}
}
