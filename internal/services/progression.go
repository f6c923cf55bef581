package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// ArticleReadResult reports what a mark-read call did.
type ArticleReadResult struct {
	StepCompleted bool                    `json:"step_completed"`
	FlowCompleted bool                    `json:"flow_completed"`
	Progress      *types.UserStepProgress `json:"progress"`
}

// TaskSubmitResult reports a code word check. Hint is only set on a wrong
// answer, and only when the task has one.
type TaskSubmitResult struct {
	IsCorrect     bool                    `json:"is_correct"`
	Hint          *string                 `json:"hint,omitempty"`
	StepCompleted bool                    `json:"step_completed"`
	FlowCompleted bool                    `json:"flow_completed"`
	Progress      *types.UserStepProgress `json:"progress"`
}

// QuizSubmitResult reports a single-question submission. Scoring fields are
// only set once every question has an answer.
type QuizSubmitResult struct {
	IsCorrect       bool                    `json:"is_correct"`
	AnsweredCount   int                     `json:"answered_count"`
	TotalQuestions  int                     `json:"total_questions"`
	QuizScored      bool                    `json:"quiz_scored"`
	ScorePercentage *int                    `json:"score_percentage,omitempty"`
	Passed          *bool                   `json:"passed,omitempty"`
	StepCompleted   bool                    `json:"step_completed"`
	FlowCompleted   bool                    `json:"flow_completed"`
	Progress        *types.UserStepProgress `json:"progress"`
}

// StepProgressView pairs a step with the learner's progress and the
// computed accessibility for it.
type StepProgressView struct {
	Step         *types.FlowStep         `json:"step"`
	Progress     *types.UserStepProgress `json:"progress"`
	IsAccessible bool                    `json:"is_accessible"`
}

// FlowProgressSummary is the learner-facing view of one enrollment.
type FlowProgressSummary struct {
	UserFlow           *types.UserFlow     `json:"user_flow"`
	Steps              []*StepProgressView `json:"steps"`
	TotalSteps         int                 `json:"total_steps"`
	CompletedSteps     int                 `json:"completed_steps"`
	ProgressPercentage int                 `json:"progress_percentage"`
	IsOverdue          bool                `json:"is_overdue"`
}

// ProgressionService is the step progression engine: it validates learner
// actions against computed accessibility, mutates step progress, unlocks
// the next step and evaluates flow completion, all inside one transaction
// per call.
type ProgressionService interface {
	MarkArticleRead(ctx context.Context, actorID, userFlowID, stepID uuid.UUID) (*ArticleReadResult, error)
	SubmitTaskAnswer(ctx context.Context, actorID, userFlowID, stepID uuid.UUID, answer string) (*TaskSubmitResult, error)
	SubmitQuizAnswer(ctx context.Context, actorID, userFlowID, stepID, questionID, answerID uuid.UUID) (*QuizSubmitResult, error)
	FlowProgress(ctx context.Context, userFlowID uuid.UUID) (*FlowProgressSummary, error)
}

type progressionService struct {
	db           *gorm.DB
	userFlowRepo repos.UserFlowRepo
	stepRepo     repos.FlowStepRepo
	progressRepo repos.UserStepProgressRepo
	answerRepo   repos.UserQuizAnswerRepo
	snapshots    SnapshotService
	audit        AuditService
	log          *logger.Logger
}

func NewProgressionService(
	db *gorm.DB,
	userFlowRepo repos.UserFlowRepo,
	stepRepo repos.FlowStepRepo,
	progressRepo repos.UserStepProgressRepo,
	answerRepo repos.UserQuizAnswerRepo,
	snapshots SnapshotService,
	audit AuditService,
	baseLog *logger.Logger,
) ProgressionService {
	return &progressionService{
		db:           db,
		userFlowRepo: userFlowRepo,
		stepRepo:     stepRepo,
		progressRepo: progressRepo,
		answerRepo:   answerRepo,
		snapshots:    snapshots,
		audit:        audit,
		log:          baseLog.With("service", "ProgressionService"),
	}
}

// progressionContext is the state one engine call operates on: the locked
// enrollment, its ordered active steps and the progress row per step.
type progressionContext struct {
	userFlow       *types.UserFlow
	steps          []*types.FlowStep
	progressByStep map[uuid.UUID]*types.UserStepProgress
}

func (s *progressionService) loadContext(ctx context.Context, tx *gorm.DB, actorID, userFlowID uuid.UUID) (*progressionContext, error) {
	userFlow, err := s.userFlowRepo.GetByIDForUpdate(ctx, tx, userFlowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("user flow %s not found", userFlowID)
	}
	if err != nil {
		return nil, err
	}
	if userFlow.UserID != actorID {
		return nil, apierr.Forbidden("user %s is not the learner of this flow", actorID)
	}
	steps, err := s.stepRepo.GetActiveByFlowID(ctx, tx, userFlow.FlowID)
	if err != nil {
		return nil, err
	}
	progressRows, err := s.progressRepo.ListByUserFlow(ctx, tx, userFlow.ID)
	if err != nil {
		return nil, err
	}
	progressByStep := make(map[uuid.UUID]*types.UserStepProgress, len(progressRows))
	for _, p := range progressRows {
		progressByStep[p.FlowStepID] = p
	}
	return &progressionContext{
		userFlow:       userFlow,
		steps:          steps,
		progressByStep: progressByStep,
	}, nil
}

func (pc *progressionContext) stepIndex(stepID uuid.UUID) int {
	for i, step := range pc.steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

// isStepAccessible is the computed accessibility rule. Pausing or
// suspending the flow freezes every step; otherwise the first step is
// always accessible and later steps require the preceding step to be
// completed.
func isStepAccessible(userFlow *types.UserFlow, steps []*types.FlowStep, progressByStep map[uuid.UUID]*types.UserStepProgress, index int) bool {
	if userFlow.Status == types.FlowStatusPaused || userFlow.Status == types.FlowStatusSuspended {
		return false
	}
	if index < 0 || index >= len(steps) {
		return false
	}
	if index == 0 {
		return true
	}
	previous := progressByStep[steps[index-1].ID]
	return previous != nil && previous.Status == types.StepStatusCompleted
}

func (s *progressionService) requireAccessibleStep(pc *progressionContext, stepID uuid.UUID) (int, *types.UserStepProgress, error) {
	index := pc.stepIndex(stepID)
	if index < 0 {
		return 0, nil, apierr.NotFound("step %s not found in flow", stepID)
	}
	progress := pc.progressByStep[stepID]
	if progress == nil {
		return 0, nil, apierr.NotFound("no progress record for step %s", stepID)
	}
	if !isStepAccessible(pc.userFlow, pc.steps, pc.progressByStep, index) {
		return 0, nil, apierr.NotAccessible("step %s is not accessible", stepID)
	}
	return index, progress, nil
}

func (s *progressionService) beginStep(progress *types.UserStepProgress, now time.Time) {
	if progress.StartedAt == nil {
		progress.StartedAt = &now
	}
	if progress.Status == types.StepStatusAvailable {
		progress.Status = types.StepStatusInProgress
	}
}

// stepContentComplete reports whether every content object attached to the
// step has been finished by the learner.
func stepContentComplete(step *types.FlowStep, progress *types.UserStepProgress) bool {
	if step.Article != nil && progress.ArticleReadAt == nil {
		return false
	}
	if step.Task != nil && progress.TaskCompletedAt == nil {
		return false
	}
	if step.Quiz != nil && progress.QuizCompletedAt == nil {
		return false
	}
	return true
}

type progressionOutcome struct {
	stepCompleted bool
	flowCompleted bool
	completedStep *types.FlowStep
}

// completeStep marks the progress row completed, unlocks the next active
// step and evaluates flow completion. Caller persists the progress row.
func (s *progressionService) completeStep(ctx context.Context, tx *gorm.DB, pc *progressionContext, index int, progress *types.UserStepProgress, now time.Time) (*progressionOutcome, error) {
	progress.Status = types.StepStatusCompleted
	progress.CompletedAt = &now
	if err := s.progressRepo.Save(ctx, tx, progress); err != nil {
		return nil, err
	}

	outcome := &progressionOutcome{stepCompleted: true, completedStep: pc.steps[index]}
	userFlowDirty := false

	if index+1 < len(pc.steps) {
		next := pc.steps[index+1]
		nextProgress := pc.progressByStep[next.ID]
		if nextProgress != nil && nextProgress.Status == types.StepStatusLocked {
			nextProgress.Status = types.StepStatusAvailable
			if err := s.progressRepo.Save(ctx, tx, nextProgress); err != nil {
				return nil, err
			}
		}
		nextID := next.ID
		pc.userFlow.CurrentStepID = &nextID
		userFlowDirty = true
	}

	completedCount := 0
	for _, step := range pc.steps {
		if p := pc.progressByStep[step.ID]; p != nil && p.Status == types.StepStatusCompleted {
			completedCount++
		}
	}
	if completedCount == len(pc.steps) && pc.userFlow.IsActiveStatus() {
		pc.userFlow.Status = types.FlowStatusCompleted
		pc.userFlow.CompletedAt = &now
		outcome.flowCompleted = true
		userFlowDirty = true
	}

	if userFlowDirty {
		if err := s.userFlowRepo.Save(ctx, tx, pc.userFlow); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (s *progressionService) recordOutcome(ctx context.Context, pc *progressionContext, outcome *progressionOutcome, actorID uuid.UUID) {
	if outcome == nil || !outcome.stepCompleted {
		return
	}
	s.audit.Record(ctx, pc.userFlow.ID, types.ActionStepCompleted, actorID, nil, map[string]interface{}{
		"step_id": outcome.completedStep.ID.String(),
	})
	if outcome.flowCompleted {
		s.audit.Record(ctx, pc.userFlow.ID, types.ActionCompleted, actorID, nil, nil)
	}
}

func (s *progressionService) MarkArticleRead(ctx context.Context, actorID, userFlowID, stepID uuid.UUID) (*ArticleReadResult, error) {
	var pc *progressionContext
	var outcome *progressionOutcome
	var progress *types.UserStepProgress
	var step *types.FlowStep
	firstRead := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pc, err = s.loadContext(ctx, tx, actorID, userFlowID)
		if err != nil {
			return err
		}
		index, p, err := s.requireAccessibleStep(pc, stepID)
		if err != nil {
			return err
		}
		progress = p
		step = pc.steps[index]
		if step.Article == nil {
			return apierr.Validation("step %s has no article", stepID)
		}
		if progress.Status == types.StepStatusCompleted {
			return nil
		}
		now := time.Now().UTC()
		s.beginStep(progress, now)
		if progress.ArticleReadAt == nil {
			progress.ArticleReadAt = &now
			firstRead = true
		}
		if stepContentComplete(step, progress) {
			outcome, err = s.completeStep(ctx, tx, pc, index, progress, now)
			return err
		}
		return s.progressRepo.Save(ctx, tx, progress)
	})
	if err != nil {
		return nil, err
	}

	if firstRead {
		s.snapshots.RecordArticleRead(ctx, progress, step.Article)
	}
	s.recordOutcome(ctx, pc, outcome, actorID)

	result := &ArticleReadResult{Progress: progress}
	if outcome != nil {
		result.StepCompleted = outcome.stepCompleted
		result.FlowCompleted = outcome.flowCompleted
	}
	if progress.Status == types.StepStatusCompleted {
		result.StepCompleted = true
	}
	return result, nil
}

func (s *progressionService) SubmitTaskAnswer(ctx context.Context, actorID, userFlowID, stepID uuid.UUID, answer string) (*TaskSubmitResult, error) {
	var pc *progressionContext
	var outcome *progressionOutcome
	var progress *types.UserStepProgress
	var step *types.FlowStep
	correct := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pc, err = s.loadContext(ctx, tx, actorID, userFlowID)
		if err != nil {
			return err
		}
		index, p, err := s.requireAccessibleStep(pc, stepID)
		if err != nil {
			return err
		}
		progress = p
		step = pc.steps[index]
		if step.Task == nil {
			return apierr.Validation("step %s has no task", stepID)
		}
		if progress.TaskCompletedAt != nil {
			return apierr.InvalidState("task for step %s is already completed", stepID)
		}
		now := time.Now().UTC()
		s.beginStep(progress, now)
		correct = step.Task.CheckAnswer(answer)
		if correct {
			progress.TaskCompletedAt = &now
			if stepContentComplete(step, progress) {
				outcome, err = s.completeStep(ctx, tx, pc, index, progress, now)
				return err
			}
		}
		return s.progressRepo.Save(ctx, tx, progress)
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.RecordTaskAttempt(ctx, progress, step.Task, answer, correct)
	if correct {
		s.audit.Record(ctx, pc.userFlow.ID, types.ActionTaskCompleted, actorID, nil, map[string]interface{}{
			"step_id": stepID.String(),
		})
	}
	s.recordOutcome(ctx, pc, outcome, actorID)

	result := &TaskSubmitResult{IsCorrect: correct, Progress: progress}
	if !correct {
		result.Hint = step.Task.Hint
	}
	if outcome != nil {
		result.StepCompleted = outcome.stepCompleted
		result.FlowCompleted = outcome.flowCompleted
	}
	return result, nil
}

func (s *progressionService) SubmitQuizAnswer(ctx context.Context, actorID, userFlowID, stepID, questionID, answerID uuid.UUID) (*QuizSubmitResult, error) {
	var pc *progressionContext
	var outcome *progressionOutcome
	var progress *types.UserStepProgress
	var step *types.FlowStep
	var userAnswers []*types.UserQuizAnswer
	result := &QuizSubmitResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		pc, err = s.loadContext(ctx, tx, actorID, userFlowID)
		if err != nil {
			return err
		}
		index, p, err := s.requireAccessibleStep(pc, stepID)
		if err != nil {
			return err
		}
		progress = p
		step = pc.steps[index]
		if step.Quiz == nil {
			return apierr.Validation("step %s has no quiz", stepID)
		}
		if progress.QuizCompletedAt != nil {
			return apierr.InvalidState("quiz for step %s is already completed", stepID)
		}

		var question *types.QuizQuestion
		for _, q := range step.Quiz.Questions {
			if q.ID == questionID {
				question = q
				break
			}
		}
		if question == nil {
			return apierr.NotFound("question %s not found in quiz", questionID)
		}
		var selected *types.QuizAnswer
		for _, a := range question.Answers {
			if a.ID == answerID {
				selected = a
				break
			}
		}
		if selected == nil {
			return apierr.NotFound("answer %s not found for question %s", answerID, questionID)
		}

		now := time.Now().UTC()
		s.beginStep(progress, now)
		if _, err := s.answerRepo.Upsert(ctx, tx, &types.UserQuizAnswer{
			UserFlowID:       pc.userFlow.ID,
			QuestionID:       questionID,
			SelectedAnswerID: answerID,
			IsCorrect:        selected.IsCorrect,
			AnsweredAt:       now,
		}); err != nil {
			return err
		}

		questionIDs := make([]uuid.UUID, 0, len(step.Quiz.Questions))
		for _, q := range step.Quiz.Questions {
			questionIDs = append(questionIDs, q.ID)
		}
		userAnswers, err = s.answerRepo.ListByUserFlowAndQuestions(ctx, tx, pc.userFlow.ID, questionIDs)
		if err != nil {
			return err
		}

		result.IsCorrect = selected.IsCorrect
		result.AnsweredCount = len(userAnswers)
		result.TotalQuestions = len(step.Quiz.Questions)

		if len(userAnswers) < len(step.Quiz.Questions) {
			return s.progressRepo.Save(ctx, tx, progress)
		}

		// Every question has an answer: score the quiz.
		correctCount := 0
		for _, ua := range userAnswers {
			if ua.IsCorrect {
				correctCount++
			}
		}
		total := len(step.Quiz.Questions)
		progress.QuizCorrectAnswers = &correctCount
		progress.QuizTotalQuestions = &total
		score := step.Quiz.Score(correctCount, total)
		passed := step.Quiz.IsPassingScore(correctCount, total)
		result.QuizScored = true
		result.ScorePercentage = &score
		result.Passed = &passed

		if !passed {
			// Leave the step open; the learner may change answers and
			// the next submission re-scores.
			return s.progressRepo.Save(ctx, tx, progress)
		}

		progress.QuizCompletedAt = &now
		if stepContentComplete(step, progress) {
			outcome, err = s.completeStep(ctx, tx, pc, index, progress, now)
			return err
		}
		return s.progressRepo.Save(ctx, tx, progress)
	})
	if err != nil {
		return nil, err
	}

	if result.QuizScored {
		passed := result.Passed != nil && *result.Passed
		s.snapshots.RecordQuizCompletion(ctx, progress, step.Quiz, userAnswers,
			*progress.QuizCorrectAnswers, *progress.QuizTotalQuestions, passed)
		if passed {
			s.audit.Record(ctx, pc.userFlow.ID, types.ActionQuizPassed, actorID, nil, map[string]interface{}{
				"step_id": stepID.String(),
				"score":   *result.ScorePercentage,
			})
		}
	}
	s.recordOutcome(ctx, pc, outcome, actorID)

	result.Progress = progress
	if outcome != nil {
		result.StepCompleted = outcome.stepCompleted
		result.FlowCompleted = outcome.flowCompleted
	}
	return result, nil
}

func (s *progressionService) FlowProgress(ctx context.Context, userFlowID uuid.UUID) (*FlowProgressSummary, error) {
	userFlow, err := s.userFlowRepo.GetByID(ctx, nil, userFlowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("user flow %s not found", userFlowID)
	}
	if err != nil {
		return nil, err
	}
	steps, err := s.stepRepo.GetActiveByFlowID(ctx, nil, userFlow.FlowID)
	if err != nil {
		return nil, err
	}
	progressRows, err := s.progressRepo.ListByUserFlow(ctx, nil, userFlow.ID)
	if err != nil {
		return nil, err
	}
	progressByStep := make(map[uuid.UUID]*types.UserStepProgress, len(progressRows))
	for _, p := range progressRows {
		progressByStep[p.FlowStepID] = p
	}

	summary := &FlowProgressSummary{
		UserFlow:   userFlow,
		TotalSteps: len(steps),
		IsOverdue:  userFlow.IsOverdue(time.Now().UTC()),
	}
	for i, step := range steps {
		progress := progressByStep[step.ID]
		view := &StepProgressView{
			Step:         step,
			Progress:     progress,
			IsAccessible: isStepAccessible(userFlow, steps, progressByStep, i),
		}
		if progress != nil && progress.Status == types.StepStatusCompleted {
			summary.CompletedSteps++
		}
		summary.Steps = append(summary.Steps, view)
	}
	if summary.TotalSteps > 0 {
		summary.ProgressPercentage = summary.CompletedSteps * 100 / summary.TotalSteps
	}
	return summary, nil
}
