package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type WorkingCalendarRepo interface {
	GetByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*types.WorkingCalendar, error)
	ListRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.WorkingCalendar, error)
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.WorkingCalendar) error
}

type workingCalendarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkingCalendarRepo(db *gorm.DB, baseLog *logger.Logger) WorkingCalendarRepo {
	return &workingCalendarRepo{db: db, log: baseLog.With("repo", "WorkingCalendarRepo")}
}

func (r *workingCalendarRepo) GetByDate(ctx context.Context, tx *gorm.DB, date time.Time) (*types.WorkingCalendar, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var row types.WorkingCalendar
	if err := transaction.WithContext(ctx).
		Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *workingCalendarRepo) ListRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.WorkingCalendar, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.WorkingCalendar
	if err := transaction.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to.AddDate(0, 0, 1)).
		Order("date").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *workingCalendarRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.WorkingCalendar) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_working_day", "description", "updated_at"}),
		}).
		Create(&rows).Error
}
