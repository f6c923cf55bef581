package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkingCalendar overrides the Saturday/Sunday default for specific dates:
// public holidays, moved working days.
type WorkingCalendar struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex" json:"date"`
	IsWorkingDay bool      `gorm:"not null" json:"is_working_day"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (WorkingCalendar) TableName() string { return "working_calendar" }

func (c *WorkingCalendar) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
