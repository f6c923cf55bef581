package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type UserQuizAnswerRepo interface {
	// Upsert records the latest pick for a question, replacing any
	// earlier one for the same user flow.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.UserQuizAnswer) (*types.UserQuizAnswer, error)
	ListByUserFlowAndQuestions(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserQuizAnswer, error)
}

type userQuizAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserQuizAnswerRepo(db *gorm.DB, baseLog *logger.Logger) UserQuizAnswerRepo {
	return &userQuizAnswerRepo{db: db, log: baseLog.With("repo", "UserQuizAnswerRepo")}
}

func (r *userQuizAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserQuizAnswer) (*types.UserQuizAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_flow_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_answer_id", "is_correct", "answered_at", "updated_at"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userQuizAnswerRepo) ListByUserFlowAndQuestions(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID, questionIDs []uuid.UUID) ([]*types.UserQuizAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserQuizAnswer
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_flow_id = ? AND question_id IN ?", userFlowID, questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
