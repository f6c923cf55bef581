package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshots freeze content plus the learner's interaction at completion
// time, so later edits to the live content do not rewrite history.

type TaskSnapshot struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserStepProgressID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_step_progress_id"`
	TaskTitle          string         `gorm:"size:255;not null" json:"task_title"`
	TaskDescription    string         `json:"task_description"`
	TaskInstruction    string         `json:"task_instruction"`
	TaskCodeWord       string         `gorm:"size:100;not null" json:"task_code_word"`
	TaskHint           string         `json:"task_hint"`
	UserAnswer         string         `gorm:"size:255;not null" json:"user_answer"`
	IsCorrect          bool           `gorm:"not null" json:"is_correct"`
	AttemptsCount      int            `gorm:"not null;default:1" json:"attempts_count"`
	SnapshotCreatedAt  time.Time      `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TaskSnapshot) TableName() string { return "task_snapshots" }

func (s *TaskSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type ArticleSnapshot struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserStepProgressID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_step_progress_id"`
	ArticleTitle       string         `gorm:"size:255;not null" json:"article_title"`
	ArticleContent     string         `json:"article_content"`
	ArticleSummary     string         `json:"article_summary"`
	ReadingStartedAt   time.Time      `gorm:"not null" json:"reading_started_at"`
	SnapshotCreatedAt  time.Time      `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ArticleSnapshot) TableName() string { return "article_snapshots" }

func (s *ArticleSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type QuizSnapshot struct {
	ID                     uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	UserStepProgressID     uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex" json:"user_step_progress_id"`
	QuizTitle              string                    `gorm:"size:255;not null" json:"quiz_title"`
	QuizDescription        string                    `json:"quiz_description"`
	PassingScorePercentage int                       `gorm:"not null" json:"passing_score_percentage"`
	TotalQuestions         int                       `gorm:"not null" json:"total_questions"`
	CorrectAnswers         int                       `gorm:"not null" json:"correct_answers"`
	ScorePercentage        int                       `gorm:"not null" json:"score_percentage"`
	IsPassed               bool                      `gorm:"not null" json:"is_passed"`
	Questions              []*QuizQuestionSnapshot   `gorm:"foreignKey:QuizSnapshotID" json:"questions,omitempty"`
	UserAnswers            []*UserQuizAnswerSnapshot `gorm:"foreignKey:QuizSnapshotID" json:"user_answers,omitempty"`
	SnapshotCreatedAt      time.Time                 `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt              time.Time                 `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time                 `gorm:"not null" json:"updated_at"`
	DeletedAt              gorm.DeletedAt            `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizSnapshot) TableName() string { return "quiz_snapshots" }

func (s *QuizSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type QuizQuestionSnapshot struct {
	ID                 uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	QuizSnapshotID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"quiz_snapshot_id"`
	OriginalQuestionID uuid.UUID             `gorm:"type:uuid;not null" json:"original_question_id"`
	QuestionText       string                `gorm:"not null" json:"question_text"`
	QuestionOrder      int                   `gorm:"not null" json:"question_order"`
	Explanation        string                `json:"explanation"`
	AnswerOptions      []*QuizAnswerSnapshot `gorm:"foreignKey:QuestionSnapshotID" json:"answer_options,omitempty"`
	SnapshotCreatedAt  time.Time             `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt          time.Time             `gorm:"not null" json:"created_at"`
}

func (QuizQuestionSnapshot) TableName() string { return "quiz_question_snapshots" }

func (s *QuizQuestionSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type QuizAnswerSnapshot struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionSnapshotID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_snapshot_id"`
	OriginalAnswerID   uuid.UUID `gorm:"type:uuid;not null" json:"original_answer_id"`
	AnswerText         string    `gorm:"not null" json:"answer_text"`
	IsCorrect          bool      `gorm:"not null" json:"is_correct"`
	AnswerOrder        int       `gorm:"not null" json:"answer_order"`
	Explanation        string    `json:"explanation"`
	SnapshotCreatedAt  time.Time `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
}

func (QuizAnswerSnapshot) TableName() string { return "quiz_answer_snapshots" }

func (s *QuizAnswerSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type UserQuizAnswerSnapshot struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizSnapshotID           uuid.UUID `gorm:"type:uuid;not null;index:idx_snapshot_question,unique" json:"quiz_snapshot_id"`
	QuestionSnapshotID       uuid.UUID `gorm:"type:uuid;not null;index:idx_snapshot_question,unique" json:"question_snapshot_id"`
	SelectedAnswerSnapshotID uuid.UUID `gorm:"type:uuid;not null" json:"selected_answer_snapshot_id"`
	IsCorrect                bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt               time.Time `gorm:"not null" json:"answered_at"`
	SnapshotCreatedAt        time.Time `gorm:"not null" json:"snapshot_created_at"`
	CreatedAt                time.Time `gorm:"not null" json:"created_at"`
}

func (UserQuizAnswerSnapshot) TableName() string { return "user_quiz_answer_snapshots" }

func (s *UserQuizAnswerSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
