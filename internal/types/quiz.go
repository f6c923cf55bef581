package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quiz is a step's knowledge check. Passing is decided against
// PassingScorePercentage (1-100).
type Quiz struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FlowStepID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"flow_step_id"`
	Title                  string          `gorm:"size:255;not null" json:"title"`
	Description            string          `json:"description"`
	PassingScorePercentage int             `gorm:"not null;default:70" json:"passing_score_percentage"`
	ShuffleQuestions       bool            `gorm:"not null;default:false" json:"shuffle_questions"`
	ShuffleAnswers         bool            `gorm:"not null;default:false" json:"shuffle_answers"`
	Questions              []*QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt              time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt              gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// Score returns the percentage of correct answers, truncated to an integer.
func (q *Quiz) Score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return correct * 100 / total
}

func (q *Quiz) IsPassingScore(correct, total int) bool {
	return q.Score(correct, total) >= q.PassingScorePercentage
}

type QuizQuestion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_question_order,unique" json:"quiz_id"`
	Question    string         `gorm:"not null" json:"question"`
	Explanation string         `json:"explanation"`
	Order       int            `gorm:"not null;column:question_order;index:idx_quiz_question_order,unique" json:"order"`
	Answers     []*QuizAnswer  `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// CorrectAnswer returns the answer flagged correct, if loaded. Exactly one
// per question is assumed by scoring.
func (q *QuizQuestion) CorrectAnswer() *QuizAnswer {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a
		}
	}
	return nil
}

type QuizAnswer struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_question_answer_order,unique" json:"question_id"`
	AnswerText  string         `gorm:"size:500;not null;column:answer_text" json:"answer_text"`
	IsCorrect   bool           `gorm:"not null;default:false" json:"-"`
	Explanation string         `json:"explanation"`
	Order       int            `gorm:"not null;column:answer_order;index:idx_question_answer_order,unique" json:"order"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizAnswer) TableName() string { return "quiz_answers" }

func (a *QuizAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
