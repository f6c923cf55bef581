package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// SnapshotService copies content as the learner saw it at completion time.
// Like the audit log, recording is best effort: failures are logged and
// never bubble back into the progression path.
type SnapshotService interface {
	RecordArticleRead(ctx context.Context, progress *types.UserStepProgress, article *types.Article)
	RecordTaskAttempt(ctx context.Context, progress *types.UserStepProgress, task *types.Task, answer string, correct bool)
	RecordQuizCompletion(ctx context.Context, progress *types.UserStepProgress, quiz *types.Quiz, userAnswers []*types.UserQuizAnswer, correctAnswers, totalQuestions int, passed bool)
	GetArticleSnapshot(ctx context.Context, progressID uuid.UUID) (*types.ArticleSnapshot, error)
	GetTaskSnapshot(ctx context.Context, progressID uuid.UUID) (*types.TaskSnapshot, error)
	GetQuizSnapshot(ctx context.Context, progressID uuid.UUID) (*types.QuizSnapshot, error)
}

type snapshotService struct {
	snapshotRepo repos.SnapshotRepo
	log          *logger.Logger
}

func NewSnapshotService(snapshotRepo repos.SnapshotRepo, baseLog *logger.Logger) SnapshotService {
	return &snapshotService{
		snapshotRepo: snapshotRepo,
		log:          baseLog.With("service", "SnapshotService"),
	}
}

func (s *snapshotService) RecordArticleRead(ctx context.Context, progress *types.UserStepProgress, article *types.Article) {
	if article == nil {
		return
	}
	if _, err := s.snapshotRepo.GetArticleByProgress(ctx, nil, progress.ID); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("Failed to look up article snapshot", "progress_id", progress.ID, "error", err)
		return
	}
	now := time.Now().UTC()
	readingStarted := now
	if progress.StartedAt != nil {
		readingStarted = *progress.StartedAt
	}
	snapshot := &types.ArticleSnapshot{
		UserStepProgressID: progress.ID,
		ArticleTitle:       article.Title,
		ArticleContent:     article.Content,
		ArticleSummary:     article.Summary,
		ReadingStartedAt:   readingStarted,
		SnapshotCreatedAt:  now,
	}
	if _, err := s.snapshotRepo.CreateArticle(ctx, nil, snapshot); err != nil {
		s.log.Error("Failed to record article snapshot", "progress_id", progress.ID, "error", err)
	}
}

func (s *snapshotService) RecordTaskAttempt(ctx context.Context, progress *types.UserStepProgress, task *types.Task, answer string, correct bool) {
	if task == nil {
		return
	}
	now := time.Now().UTC()
	existing, err := s.snapshotRepo.GetTaskByProgress(ctx, nil, progress.ID)
	if err == nil {
		existing.UserAnswer = answer
		existing.IsCorrect = correct
		existing.AttemptsCount++
		if err := s.snapshotRepo.SaveTask(ctx, nil, existing); err != nil {
			s.log.Error("Failed to update task snapshot", "progress_id", progress.ID, "error", err)
		}
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("Failed to look up task snapshot", "progress_id", progress.ID, "error", err)
		return
	}
	hint := ""
	if task.Hint != nil {
		hint = *task.Hint
	}
	snapshot := &types.TaskSnapshot{
		UserStepProgressID: progress.ID,
		TaskTitle:          task.Title,
		TaskDescription:    task.Description,
		TaskInstruction:    task.Instruction,
		TaskCodeWord:       task.CodeWord,
		TaskHint:           hint,
		UserAnswer:         answer,
		IsCorrect:          correct,
		AttemptsCount:      1,
		SnapshotCreatedAt:  now,
	}
	if _, err := s.snapshotRepo.CreateTask(ctx, nil, snapshot); err != nil {
		s.log.Error("Failed to record task snapshot", "progress_id", progress.ID, "error", err)
	}
}

// RecordQuizCompletion freezes the whole quiz tree plus the learner's picks.
// A retried completion replaces the previous snapshot wholesale.
func (s *snapshotService) RecordQuizCompletion(ctx context.Context, progress *types.UserStepProgress, quiz *types.Quiz, userAnswers []*types.UserQuizAnswer, correctAnswers, totalQuestions int, passed bool) {
	if quiz == nil {
		return
	}
	now := time.Now().UTC()
	snapshot := &types.QuizSnapshot{
		ID:                     uuid.New(),
		UserStepProgressID:     progress.ID,
		QuizTitle:              quiz.Title,
		QuizDescription:        quiz.Description,
		PassingScorePercentage: quiz.PassingScorePercentage,
		TotalQuestions:         totalQuestions,
		CorrectAnswers:         correctAnswers,
		ScorePercentage:        quiz.Score(correctAnswers, totalQuestions),
		IsPassed:               passed,
		SnapshotCreatedAt:      now,
	}

	questionSnapshotIDs := make(map[uuid.UUID]uuid.UUID, len(quiz.Questions))
	answerSnapshotIDs := make(map[uuid.UUID]uuid.UUID)
	for _, question := range quiz.Questions {
		qs := &types.QuizQuestionSnapshot{
			ID:                 uuid.New(),
			QuizSnapshotID:     snapshot.ID,
			OriginalQuestionID: question.ID,
			QuestionText:       question.Question,
			QuestionOrder:      question.Order,
			Explanation:        question.Explanation,
			SnapshotCreatedAt:  now,
		}
		questionSnapshotIDs[question.ID] = qs.ID
		for _, answer := range question.Answers {
			as := &types.QuizAnswerSnapshot{
				ID:                 uuid.New(),
				QuestionSnapshotID: qs.ID,
				OriginalAnswerID:   answer.ID,
				AnswerText:         answer.AnswerText,
				IsCorrect:          answer.IsCorrect,
				AnswerOrder:        answer.Order,
				Explanation:        answer.Explanation,
				SnapshotCreatedAt:  now,
			}
			answerSnapshotIDs[answer.ID] = as.ID
			qs.AnswerOptions = append(qs.AnswerOptions, as)
		}
		snapshot.Questions = append(snapshot.Questions, qs)
	}

	for _, ua := range userAnswers {
		questionSnapshotID, ok := questionSnapshotIDs[ua.QuestionID]
		if !ok {
			continue
		}
		selectedSnapshotID, ok := answerSnapshotIDs[ua.SelectedAnswerID]
		if !ok {
			continue
		}
		snapshot.UserAnswers = append(snapshot.UserAnswers, &types.UserQuizAnswerSnapshot{
			QuizSnapshotID:           snapshot.ID,
			QuestionSnapshotID:       questionSnapshotID,
			SelectedAnswerSnapshotID: selectedSnapshotID,
			IsCorrect:                ua.IsCorrect,
			AnsweredAt:               ua.AnsweredAt,
			SnapshotCreatedAt:        now,
		})
	}

	if _, err := s.snapshotRepo.ReplaceQuiz(ctx, nil, snapshot); err != nil {
		s.log.Error("Failed to record quiz snapshot", "progress_id", progress.ID, "error", err)
	}
}

func (s *snapshotService) GetArticleSnapshot(ctx context.Context, progressID uuid.UUID) (*types.ArticleSnapshot, error) {
	return s.snapshotRepo.GetArticleByProgress(ctx, nil, progressID)
}

func (s *snapshotService) GetTaskSnapshot(ctx context.Context, progressID uuid.UUID) (*types.TaskSnapshot, error) {
	return s.snapshotRepo.GetTaskByProgress(ctx, nil, progressID)
}

func (s *snapshotService) GetQuizSnapshot(ctx context.Context, progressID uuid.UUID) (*types.QuizSnapshot, error) {
	return s.snapshotRepo.GetQuizByProgress(ctx, nil, progressID)
}
