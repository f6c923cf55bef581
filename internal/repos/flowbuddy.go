package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type FlowBuddyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.FlowBuddy) (*types.FlowBuddy, error)
	GetByUserFlowAndBuddy(ctx context.Context, tx *gorm.DB, userFlowID, buddyUserID uuid.UUID) (*types.FlowBuddy, error)
	GetActiveByUserFlowAndBuddy(ctx context.Context, tx *gorm.DB, userFlowID, buddyUserID uuid.UUID) (*types.FlowBuddy, error)
	ListActiveByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID) ([]*types.FlowBuddy, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.FlowBuddy) error
}

type flowBuddyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlowBuddyRepo(db *gorm.DB, baseLog *logger.Logger) FlowBuddyRepo {
	return &flowBuddyRepo{db: db, log: baseLog.With("repo", "FlowBuddyRepo")}
}

func (r *flowBuddyRepo) Create(ctx context.Context, tx *gorm.DB, row *types.FlowBuddy) (*types.FlowBuddy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *flowBuddyRepo) GetByUserFlowAndBuddy(ctx context.Context, tx *gorm.DB, userFlowID, buddyUserID uuid.UUID) (*types.FlowBuddy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.FlowBuddy
	if err := transaction.WithContext(ctx).
		Where("user_flow_id = ? AND buddy_user_id = ?", userFlowID, buddyUserID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *flowBuddyRepo) GetActiveByUserFlowAndBuddy(ctx context.Context, tx *gorm.DB, userFlowID, buddyUserID uuid.UUID) (*types.FlowBuddy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.FlowBuddy
	if err := transaction.WithContext(ctx).
		Where("user_flow_id = ? AND buddy_user_id = ? AND is_active = ?", userFlowID, buddyUserID, true).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *flowBuddyRepo) ListActiveByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID) ([]*types.FlowBuddy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FlowBuddy
	if err := transaction.WithContext(ctx).
		Preload("BuddyUser").
		Where("user_flow_id = ? AND is_active = ?", userFlowID, true).
		Order("assigned_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *flowBuddyRepo) Save(ctx context.Context, tx *gorm.DB, row *types.FlowBuddy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}
