package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type SnapshotRepo interface {
	GetArticleByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.ArticleSnapshot, error)
	CreateArticle(ctx context.Context, tx *gorm.DB, row *types.ArticleSnapshot) (*types.ArticleSnapshot, error)
	GetTaskByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.TaskSnapshot, error)
	CreateTask(ctx context.Context, tx *gorm.DB, row *types.TaskSnapshot) (*types.TaskSnapshot, error)
	SaveTask(ctx context.Context, tx *gorm.DB, row *types.TaskSnapshot) error
	GetQuizByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.QuizSnapshot, error)
	// ReplaceQuiz drops any earlier snapshot tree for the progress row and
	// writes the new one.
	ReplaceQuiz(ctx context.Context, tx *gorm.DB, row *types.QuizSnapshot) (*types.QuizSnapshot, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return &snapshotRepo{db: db, log: baseLog.With("repo", "SnapshotRepo")}
}

func (r *snapshotRepo) GetArticleByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.ArticleSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.ArticleSnapshot
	if err := transaction.WithContext(ctx).
		Where("user_step_progress_id = ?", progressID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *snapshotRepo) CreateArticle(ctx context.Context, tx *gorm.DB, row *types.ArticleSnapshot) (*types.ArticleSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *snapshotRepo) GetTaskByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.TaskSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.TaskSnapshot
	if err := transaction.WithContext(ctx).
		Where("user_step_progress_id = ?", progressID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *snapshotRepo) CreateTask(ctx context.Context, tx *gorm.DB, row *types.TaskSnapshot) (*types.TaskSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *snapshotRepo) SaveTask(ctx context.Context, tx *gorm.DB, row *types.TaskSnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *snapshotRepo) GetQuizByProgress(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.QuizSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.QuizSnapshot
	if err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("question_order") }).
		Preload("Questions.AnswerOptions", func(db *gorm.DB) *gorm.DB { return db.Order("answer_order") }).
		Preload("UserAnswers").
		Where("user_step_progress_id = ?", progressID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *snapshotRepo) ReplaceQuiz(ctx context.Context, tx *gorm.DB, row *types.QuizSnapshot) (*types.QuizSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := r.deleteQuizTree(ctx, transaction, row.UserStepProgressID); err != nil {
		return nil, err
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *snapshotRepo) deleteQuizTree(ctx context.Context, transaction *gorm.DB, progressID uuid.UUID) error {
	var existing types.QuizSnapshot
	err := transaction.WithContext(ctx).
		Where("user_step_progress_id = ?", progressID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var questionIDs []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.QuizQuestionSnapshot{}).
		Where("quiz_snapshot_id = ?", existing.ID).
		Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := transaction.WithContext(ctx).
			Where("question_snapshot_id IN ?", questionIDs).
			Delete(&types.QuizAnswerSnapshot{}).Error; err != nil {
			return err
		}
	}
	if err := transaction.WithContext(ctx).
		Where("quiz_snapshot_id = ?", existing.ID).
		Delete(&types.UserQuizAnswerSnapshot{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).
		Where("quiz_snapshot_id = ?", existing.ID).
		Delete(&types.QuizQuestionSnapshot{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", existing.ID).
		Delete(&types.QuizSnapshot{}).Error
}
