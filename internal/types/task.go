package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a step's puzzle: the learner must find and submit a hidden code
// word.
type Task struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FlowStepID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"flow_step_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"not null" json:"description"`
	Instruction string         `gorm:"not null" json:"instruction"`
	CodeWord    string         `gorm:"size:100;not null;column:code_word" json:"-"`
	Hint        *string        `json:"hint,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CheckAnswer compares case-insensitively after trimming whitespace.
func (t *Task) CheckAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(t.CodeWord))
}
