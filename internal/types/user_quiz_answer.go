package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserQuizAnswer records the learner's selected answer for one question.
// Unique per (user_flow, question); resubmission overwrites.
type UserQuizAnswer struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserFlowID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_question,unique" json:"user_flow_id"`
	UserFlow         *UserFlow      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserFlowID;references:ID" json:"user_flow,omitempty"`
	QuestionID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_userflow_question,unique" json:"question_id"`
	Question         *QuizQuestion  `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	SelectedAnswerID uuid.UUID      `gorm:"type:uuid;not null;column:selected_answer_id" json:"selected_answer_id"`
	SelectedAnswer   *QuizAnswer    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SelectedAnswerID;references:ID" json:"selected_answer,omitempty"`
	IsCorrect        bool           `gorm:"not null" json:"is_correct"`
	AnsweredAt       time.Time      `gorm:"not null" json:"answered_at"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserQuizAnswer) TableName() string { return "user_quiz_answers" }

func (a *UserQuizAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
