package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	AvatarURL    string         `gorm:"size:255" json:"avatar_url,omitempty"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`

	// RecipeCount is denormalized bookkeeping maintained by the recipe
	// writer; the authoritative list is recipes.user_id.
	RecipeCount int64 `gorm:"not null;default:0" json:"recipe_count"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Follow records that follower follows followee.
type Follow struct {
	FollowerID uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecipeSave records a user's saved (favorited) recipe.
type RecipeSave struct {
	UserID    uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}
