package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	RecipeID  uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"recipe_id"`
	UserID    uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	User      *User          `json:"user,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

type Report struct {
	ID         uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RecipeID   uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"recipe_id"`
	ReporterID uuid.UUID  `gorm:"type:varchar(36);not null" json:"reporter_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Status     string     `gorm:"size:20;not null;default:'open'" json:"status"`
	ResolvedBy *uuid.UUID `gorm:"type:varchar(36)" json:"resolved_by,omitempty"`
	AdminNote  string     `gorm:"type:text" json:"admin_note,omitempty"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
