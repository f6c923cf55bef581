package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StepStatusLocked     = "locked"
	StepStatusAvailable  = "available"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
)

// UserStepProgress is one learner's progress record for one step of their
// enrolled flow. Accessibility is computed by the progression engine, never
// stored here.
type UserStepProgress struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserFlowID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_step,unique" json:"user_flow_id"`
	UserFlow           *UserFlow      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserFlowID;references:ID" json:"user_flow,omitempty"`
	FlowStepID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_step,unique" json:"flow_step_id"`
	FlowStep           *FlowStep      `gorm:"constraint:OnDelete:CASCADE;foreignKey:FlowStepID;references:ID" json:"flow_step,omitempty"`
	Status             string         `gorm:"size:20;not null;default:'locked';index" json:"status"`
	ArticleReadAt      *time.Time     `json:"article_read_at,omitempty"`
	TaskCompletedAt    *time.Time     `json:"task_completed_at,omitempty"`
	QuizCompletedAt    *time.Time     `json:"quiz_completed_at,omitempty"`
	QuizCorrectAnswers *int           `json:"quiz_correct_answers,omitempty"`
	QuizTotalQuestions *int           `json:"quiz_total_questions,omitempty"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserStepProgress) TableName() string { return "user_step_progress" }

func (p *UserStepProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// QuizScorePercentage returns the recorded quiz score, truncated to an
// integer, or nil when the step has no recorded tally.
func (p *UserStepProgress) QuizScorePercentage() *int {
	if p.QuizTotalQuestions == nil || *p.QuizTotalQuestions == 0 || p.QuizCorrectAnswers == nil {
		return nil
	}
	score := *p.QuizCorrectAnswers * 100 / *p.QuizTotalQuestions
	return &score
}
