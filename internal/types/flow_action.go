package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionStarted          = "started"
	ActionPaused           = "paused"
	ActionResumed          = "resumed"
	ActionCompleted        = "completed"
	ActionExtendedDeadline = "extended_deadline"
	ActionStepCompleted    = "step_completed"
	ActionQuizPassed       = "quiz_passed"
	ActionTaskCompleted    = "task_completed"
	ActionBuddyAssigned    = "buddy_assigned"
	ActionBuddyRemoved     = "buddy_removed"
	ActionDeleted          = "deleted"
)

// FlowAction is the append-only audit log of lifecycle events. Rows are
// never updated or deleted.
type FlowAction struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserFlowID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_flow_id"`
	UserFlow      *UserFlow      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserFlowID;references:ID" json:"user_flow,omitempty"`
	ActionType    string         `gorm:"size:30;not null;index;column:action_type" json:"action_type"`
	PerformedByID uuid.UUID      `gorm:"type:uuid;not null;column:performed_by_id" json:"performed_by_id"`
	PerformedBy   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:PerformedByID;references:ID" json:"performed_by,omitempty"`
	Reason        *string        `json:"reason,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	PerformedAt   time.Time      `gorm:"not null;index" json:"performed_at"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (FlowAction) TableName() string { return "flow_actions" }

func (a *FlowAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
