package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type UserFlowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserFlow) (*types.UserFlow, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserFlow, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so concurrent progression calls serialize on it.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserFlow, error)
	GetByUserAndFlow(ctx context.Context, tx *gorm.DB, userID, flowID uuid.UUID) (*types.UserFlow, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserFlow, error)
	ListByBuddy(ctx context.Context, tx *gorm.DB, buddyUserID uuid.UUID) ([]*types.UserFlow, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserFlow) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type userFlowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserFlowRepo(db *gorm.DB, baseLog *logger.Logger) UserFlowRepo {
	return &userFlowRepo{db: db, log: baseLog.With("repo", "UserFlowRepo")}
}

func (r *userFlowRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserFlow) (*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userFlowRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserFlow
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userFlowRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if transaction.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.UserFlow
	if err := query.
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userFlowRepo) GetByUserAndFlow(ctx context.Context, tx *gorm.DB, userID, flowID uuid.UUID) (*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.UserFlow
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND flow_id = ?", userID, flowID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userFlowRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserFlow
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userFlowRepo) ListByBuddy(ctx context.Context, tx *gorm.DB, buddyUserID uuid.UUID) ([]*types.UserFlow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.UserFlow
	if err := transaction.WithContext(ctx).
		Joins("JOIN flow_buddies ON flow_buddies.user_flow_id = user_flows.id").
		Where("flow_buddies.buddy_user_id = ? AND flow_buddies.is_active = ?", buddyUserID, true).
		Order("user_flows.created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userFlowRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserFlow) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *userFlowRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.UserFlow{}).Error
}
