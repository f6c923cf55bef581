package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type FlowStepRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.FlowStep) (*types.FlowStep, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FlowStep, error)
	// GetActiveByFlowID returns the flow's active steps ordered by step
	// order, with their content objects preloaded.
	GetActiveByFlowID(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) ([]*types.FlowStep, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.FlowStep) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SoftDeleteByFlowID(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) error
}

type flowStepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlowStepRepo(db *gorm.DB, baseLog *logger.Logger) FlowStepRepo {
	return &flowStepRepo{db: db, log: baseLog.With("repo", "FlowStepRepo")}
}

func (r *flowStepRepo) Create(ctx context.Context, tx *gorm.DB, row *types.FlowStep) (*types.FlowStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *flowStepRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FlowStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.FlowStep
	if err := transaction.WithContext(ctx).
		Preload("Article").
		Preload("Task").
		Preload("Quiz").
		Preload("Quiz.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order") }).
		Preload("Quiz.Questions.Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answer_order") }).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *flowStepRepo) GetActiveByFlowID(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) ([]*types.FlowStep, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FlowStep
	if err := transaction.WithContext(ctx).
		Preload("Article").
		Preload("Task").
		Preload("Quiz").
		Preload("Quiz.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order") }).
		Preload("Quiz.Questions.Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answer_order") }).
		Where("flow_id = ? AND is_active = ?", flowID, true).
		Order("step_order").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *flowStepRepo) Save(ctx context.Context, tx *gorm.DB, row *types.FlowStep) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *flowStepRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.FlowStep{}).Error
}

func (r *flowStepRepo) SoftDeleteByFlowID(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("flow_id = ?", flowID).
		Delete(&types.FlowStep{}).Error
}
