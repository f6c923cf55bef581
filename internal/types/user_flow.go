package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FlowStatusNotStarted = "not_started"
	FlowStatusInProgress = "in_progress"
	FlowStatusPaused     = "paused"
	FlowStatusCompleted  = "completed"
	FlowStatusSuspended  = "suspended"
)

// UserFlow is one learner's enrollment instance in one flow.
type UserFlow struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_flow,unique" json:"user_id"`
	User                   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	FlowID                 uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_flow,unique" json:"flow_id"`
	Flow                   *Flow          `gorm:"constraint:OnDelete:CASCADE;foreignKey:FlowID;references:ID" json:"flow,omitempty"`
	Status                 string         `gorm:"size:20;not null;default:'not_started';index" json:"status"`
	CurrentStepID          *uuid.UUID     `gorm:"type:uuid;column:current_step_id" json:"current_step_id,omitempty"`
	CurrentStep            *FlowStep      `gorm:"constraint:OnDelete:SET NULL;foreignKey:CurrentStepID;references:ID" json:"current_step,omitempty"`
	PausedByID             *uuid.UUID     `gorm:"type:uuid;column:paused_by_id" json:"paused_by_id,omitempty"`
	PausedAt               *time.Time     `json:"paused_at,omitempty"`
	PauseReason            *string        `json:"pause_reason,omitempty"`
	ExpectedCompletionDate *time.Time     `gorm:"type:date;index" json:"expected_completion_date,omitempty"`
	StartedAt              *time.Time     `json:"started_at,omitempty"`
	CompletedAt            *time.Time     `json:"completed_at,omitempty"`
	CreatedAt              time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserFlow) TableName() string { return "user_flows" }

func (uf *UserFlow) BeforeCreate(tx *gorm.DB) error {
	if uf.ID == uuid.Nil {
		uf.ID = uuid.New()
	}
	return nil
}

// IsActiveStatus reports whether the enrollment is still being worked on.
func (uf *UserFlow) IsActiveStatus() bool {
	return uf.Status == FlowStatusInProgress || uf.Status == FlowStatusPaused
}

// IsOverdue reports whether the deadline passed while the flow is unfinished.
func (uf *UserFlow) IsOverdue(now time.Time) bool {
	if uf.ExpectedCompletionDate == nil {
		return false
	}
	if uf.Status != FlowStatusNotStarted && uf.Status != FlowStatusInProgress {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.After(*uf.ExpectedCompletionDate)
}
