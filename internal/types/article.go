package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a step's reading content.
type Article struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FlowStepID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"flow_step_id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Content    string         `gorm:"not null" json:"content"`
	Summary    string         `json:"summary"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Article) TableName() string { return "articles" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
