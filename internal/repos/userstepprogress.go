package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type UserStepProgressRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.UserStepProgress) ([]*types.UserStepProgress, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserStepProgress, error)
	GetByUserFlowAndStep(ctx context.Context, tx *gorm.DB, userFlowID, flowStepID uuid.UUID) (*types.UserStepProgress, error)
	ListByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID) ([]*types.UserStepProgress, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserStepProgress) error
}

type userStepProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStepProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserStepProgressRepo {
	return &userStepProgressRepo{db: db, log: baseLog.With("repo", "UserStepProgressRepo")}
}

func (r *userStepProgressRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.UserStepProgress) ([]*types.UserStepProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.UserStepProgress{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userStepProgressRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserStepProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserStepProgress
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userStepProgressRepo) GetByUserFlowAndStep(ctx context.Context, tx *gorm.DB, userFlowID, flowStepID uuid.UUID) (*types.UserStepProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserStepProgress
	if err := transaction.WithContext(ctx).
		Where("user_flow_id = ? AND flow_step_id = ?", userFlowID, flowStepID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userStepProgressRepo) ListByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID) ([]*types.UserStepProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserStepProgress
	if err := transaction.WithContext(ctx).
		Where("user_flow_id = ?", userFlowID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userStepProgressRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserStepProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}
