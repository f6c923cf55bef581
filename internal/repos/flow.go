package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type FlowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Flow) (*types.Flow, error)
	GetActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Flow, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Flow, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.Flow) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	NextStepOrder(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) (int, error)
}

type flowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlowRepo(db *gorm.DB, baseLog *logger.Logger) FlowRepo {
	return &flowRepo{db: db, log: baseLog.With("repo", "FlowRepo")}
}

func (r *flowRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Flow) (*types.Flow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *flowRepo) GetActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Flow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Flow
	if err := transaction.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *flowRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Flow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Flow
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("title").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *flowRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Flow) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *flowRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Flow{}).Error
}

// NextStepOrder returns the next free order value for a new step of the flow.
func (r *flowRepo) NextStepOrder(ctx context.Context, tx *gorm.DB, flowID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var maxOrder *int
	if err := transaction.WithContext(ctx).
		Model(&types.FlowStep{}).
		Where("flow_id = ?", flowID).
		Select("MAX(step_order)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return 1, nil
	}
	return *maxOrder + 1, nil
}
