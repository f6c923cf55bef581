package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Step type labels. Informational only: which content object is actually
// attached (Article/Task/Quiz) is what gates progression.
const (
	StepTypeArticle = "article"
	StepTypeTask    = "task"
	StepTypeQuiz    = "quiz"
	StepTypeMixed   = "mixed"
)

// FlowStep is one stage of a Flow. Order is unique per flow; gaps are
// tolerated, ordering is what matters.
type FlowStep struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FlowID               uuid.UUID      `gorm:"type:uuid;not null;index:idx_flow_step_order,unique" json:"flow_id"`
	Flow                 *Flow          `gorm:"constraint:OnDelete:CASCADE;foreignKey:FlowID;references:ID" json:"flow,omitempty"`
	Title                string         `gorm:"size:255;not null" json:"title"`
	Description          string         `gorm:"not null" json:"description"`
	StepType             string         `gorm:"size:20;not null;column:step_type" json:"step_type"`
	Order                int            `gorm:"not null;column:step_order;index:idx_flow_step_order,unique" json:"order"`
	IsRequired           bool           `gorm:"not null;default:true" json:"is_required"`
	IsActive             bool           `gorm:"not null;default:true" json:"is_active"`
	EstimatedTimeMinutes *int           `gorm:"column:estimated_time_minutes" json:"estimated_time_minutes,omitempty"`
	Article              *Article       `gorm:"foreignKey:FlowStepID" json:"article,omitempty"`
	Task                 *Task          `gorm:"foreignKey:FlowStepID" json:"task,omitempty"`
	Quiz                 *Quiz          `gorm:"foreignKey:FlowStepID" json:"quiz,omitempty"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FlowStep) TableName() string { return "flow_steps" }

func (s *FlowStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
