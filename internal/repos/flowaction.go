package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// FlowActionRepo is append-only. There is intentionally no update or
// delete here.
type FlowActionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.FlowAction) (*types.FlowAction, error)
	ListByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID, limit int) ([]*types.FlowAction, error)
}

type flowActionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlowActionRepo(db *gorm.DB, baseLog *logger.Logger) FlowActionRepo {
	return &flowActionRepo{db: db, log: baseLog.With("repo", "FlowActionRepo")}
}

func (r *flowActionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.FlowAction) (*types.FlowAction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *flowActionRepo) ListByUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID, limit int) ([]*types.FlowAction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).
		Where("user_flow_id = ?", userFlowID).
		Order("performed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var results []*types.FlowAction
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
