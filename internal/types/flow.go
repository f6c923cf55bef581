package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow is a curriculum: an ordered sequence of steps assigned to learners.
type Flow struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"not null" json:"description"`
	IsMandatory bool           `gorm:"not null;default:false" json:"is_mandatory"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	Steps       []*FlowStep    `gorm:"foreignKey:FlowID" json:"steps,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Flow) TableName() string { return "flows" }

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
