package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlowBuddy is a mentor attached to one enrollment, with capability flags
// for what they may do to it.
type FlowBuddy struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserFlowID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_buddy,unique" json:"user_flow_id"`
	UserFlow          *UserFlow      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserFlowID;references:ID" json:"user_flow,omitempty"`
	BuddyUserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_buddy,unique" json:"buddy_user_id"`
	BuddyUser         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:BuddyUserID;references:ID" json:"buddy_user,omitempty"`
	CanPauseFlow      bool           `gorm:"not null;default:true" json:"can_pause_flow"`
	CanResumeFlow     bool           `gorm:"not null;default:true" json:"can_resume_flow"`
	CanExtendDeadline bool           `gorm:"not null;default:true" json:"can_extend_deadline"`
	AssignedByID      *uuid.UUID     `gorm:"type:uuid;column:assigned_by_id" json:"assigned_by_id,omitempty"`
	AssignedAt        time.Time      `gorm:"not null" json:"assigned_at"`
	IsActive          bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FlowBuddy) TableName() string { return "flow_buddies" }

func (b *FlowBuddy) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
