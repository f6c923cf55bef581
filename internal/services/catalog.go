package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type ArticleInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

type TaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Instruction string  `json:"instruction"`
	CodeWord    string  `json:"code_word"`
	Hint        *string `json:"hint,omitempty"`
}

type QuizAnswerInput struct {
	AnswerText  string `json:"answer_text"`
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}

type QuizQuestionInput struct {
	Question    string            `json:"question"`
	Explanation string            `json:"explanation"`
	Answers     []QuizAnswerInput `json:"answers"`
}

type QuizInput struct {
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	PassingScorePercentage int                 `json:"passing_score_percentage"`
	ShuffleQuestions       bool                `json:"shuffle_questions"`
	ShuffleAnswers         bool                `json:"shuffle_answers"`
	Questions              []QuizQuestionInput `json:"questions"`
}

type StepInput struct {
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	StepType             string        `json:"step_type"`
	IsRequired           *bool         `json:"is_required,omitempty"`
	EstimatedTimeMinutes *int          `json:"estimated_time_minutes,omitempty"`
	Article              *ArticleInput `json:"article,omitempty"`
	Task                 *TaskInput    `json:"task,omitempty"`
	Quiz                 *QuizInput    `json:"quiz,omitempty"`
}

type CreateFlowInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	IsMandatory bool        `json:"is_mandatory"`
	Steps       []StepInput `json:"steps"`
}

type UpdateFlowInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsMandatory *bool   `json:"is_mandatory,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CatalogService manages the content side: flows, steps and their attached
// articles, tasks and quizzes, plus the working calendar. Role enforcement
// happens at the transport boundary.
type CatalogService interface {
	CreateFlow(ctx context.Context, input CreateFlowInput) (*types.Flow, error)
	GetFlow(ctx context.Context, flowID uuid.UUID) (*types.Flow, error)
	ListFlows(ctx context.Context) ([]*types.Flow, error)
	UpdateFlow(ctx context.Context, flowID uuid.UUID, input UpdateFlowInput) (*types.Flow, error)
	SoftDeleteFlow(ctx context.Context, flowID uuid.UUID) error
	AddStep(ctx context.Context, flowID uuid.UUID, input StepInput) (*types.FlowStep, error)
	SoftDeleteStep(ctx context.Context, flowID, stepID uuid.UUID) error
	UpsertCalendar(ctx context.Context, rows []*types.WorkingCalendar) error
}

type catalogService struct {
	db           *gorm.DB
	flowRepo     repos.FlowRepo
	stepRepo     repos.FlowStepRepo
	calendarRepo repos.WorkingCalendarRepo
	log          *logger.Logger
}

func NewCatalogService(db *gorm.DB, flowRepo repos.FlowRepo, stepRepo repos.FlowStepRepo, calendarRepo repos.WorkingCalendarRepo, baseLog *logger.Logger) CatalogService {
	return &catalogService{
		db:           db,
		flowRepo:     flowRepo,
		stepRepo:     stepRepo,
		calendarRepo: calendarRepo,
		log:          baseLog.With("service", "CatalogService"),
	}
}

func (s *catalogService) CreateFlow(ctx context.Context, input CreateFlowInput) (*types.Flow, error) {
	if input.Title == "" {
		return nil, apierr.Validation("flow title is required")
	}
	steps := make([]*types.FlowStep, 0, len(input.Steps))
	for i, stepInput := range input.Steps {
		step, err := buildStep(stepInput, i+1)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	flow := &types.Flow{
		Title:       input.Title,
		Description: input.Description,
		IsMandatory: input.IsMandatory,
		IsActive:    true,
		Steps:       steps,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.flowRepo.Create(ctx, tx, flow)
		return err
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *catalogService) GetFlow(ctx context.Context, flowID uuid.UUID) (*types.Flow, error) {
	flow, err := s.flowRepo.GetActiveByID(ctx, nil, flowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("flow %s not found", flowID)
	}
	if err != nil {
		return nil, err
	}
	steps, err := s.stepRepo.GetActiveByFlowID(ctx, nil, flowID)
	if err != nil {
		return nil, err
	}
	flow.Steps = steps
	return flow, nil
}

func (s *catalogService) ListFlows(ctx context.Context) ([]*types.Flow, error) {
	return s.flowRepo.ListActive(ctx, nil)
}

func (s *catalogService) UpdateFlow(ctx context.Context, flowID uuid.UUID, input UpdateFlowInput) (*types.Flow, error) {
	var updated *types.Flow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flow, err := s.flowRepo.GetActiveByID(ctx, tx, flowID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("flow %s not found", flowID)
		}
		if err != nil {
			return err
		}
		if input.Title != nil {
			flow.Title = *input.Title
		}
		if input.Description != nil {
			flow.Description = *input.Description
		}
		if input.IsMandatory != nil {
			flow.IsMandatory = *input.IsMandatory
		}
		if input.IsActive != nil {
			flow.IsActive = *input.IsActive
		}
		if err := s.flowRepo.Save(ctx, tx, flow); err != nil {
			return err
		}
		updated = flow
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDeleteFlow tombstones the flow together with its steps. Enrollments,
// progress and snapshots survive for auditability.
func (s *catalogService) SoftDeleteFlow(ctx context.Context, flowID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.flowRepo.GetActiveByID(ctx, tx, flowID); errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("flow %s not found", flowID)
		} else if err != nil {
			return err
		}
		if err := s.stepRepo.SoftDeleteByFlowID(ctx, tx, flowID); err != nil {
			return err
		}
		return s.flowRepo.SoftDelete(ctx, tx, flowID)
	})
}

func (s *catalogService) AddStep(ctx context.Context, flowID uuid.UUID, input StepInput) (*types.FlowStep, error) {
	var created *types.FlowStep
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.flowRepo.GetActiveByID(ctx, tx, flowID); errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("flow %s not found", flowID)
		} else if err != nil {
			return err
		}
		order, err := s.flowRepo.NextStepOrder(ctx, tx, flowID)
		if err != nil {
			return err
		}
		step, err := buildStep(input, order)
		if err != nil {
			return err
		}
		step.FlowID = flowID
		if _, err := s.stepRepo.Create(ctx, tx, step); err != nil {
			return err
		}
		created = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *catalogService) SoftDeleteStep(ctx context.Context, flowID, stepID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		step, err := s.stepRepo.GetByID(ctx, tx, stepID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("step %s not found", stepID)
		}
		if err != nil {
			return err
		}
		if step.FlowID != flowID {
			return apierr.NotFound("step %s does not belong to flow %s", stepID, flowID)
		}
		return s.stepRepo.SoftDelete(ctx, tx, stepID)
	})
}

func (s *catalogService) UpsertCalendar(ctx context.Context, rows []*types.WorkingCalendar) error {
	return s.calendarRepo.Upsert(ctx, nil, rows)
}

// buildStep validates one step input and assembles the step with its
// attached content, ready for a nested create.
func buildStep(input StepInput, order int) (*types.FlowStep, error) {
	if input.Title == "" {
		return nil, apierr.Validation("step title is required")
	}
	if input.Article == nil && input.Task == nil && input.Quiz == nil {
		return nil, apierr.Validation("step %q needs an article, task or quiz", input.Title)
	}
	isRequired := true
	if input.IsRequired != nil {
		isRequired = *input.IsRequired
	}
	step := &types.FlowStep{
		Title:                input.Title,
		Description:          input.Description,
		StepType:             deriveStepType(input),
		Order:                order,
		IsRequired:           isRequired,
		IsActive:             true,
		EstimatedTimeMinutes: input.EstimatedTimeMinutes,
	}
	if input.Article != nil {
		if input.Article.Title == "" {
			return nil, apierr.Validation("article title is required")
		}
		step.Article = &types.Article{
			Title:   input.Article.Title,
			Content: input.Article.Content,
			Summary: input.Article.Summary,
		}
	}
	if input.Task != nil {
		if input.Task.CodeWord == "" {
			return nil, apierr.Validation("task code word is required")
		}
		step.Task = &types.Task{
			Title:       input.Task.Title,
			Description: input.Task.Description,
			Instruction: input.Task.Instruction,
			CodeWord:    input.Task.CodeWord,
			Hint:        input.Task.Hint,
		}
	}
	if input.Quiz != nil {
		quiz, err := buildQuiz(*input.Quiz)
		if err != nil {
			return nil, err
		}
		step.Quiz = quiz
	}
	return step, nil
}

func buildQuiz(input QuizInput) (*types.Quiz, error) {
	if len(input.Questions) == 0 {
		return nil, apierr.Validation("quiz needs at least one question")
	}
	passing := input.PassingScorePercentage
	if passing == 0 {
		passing = 70
	}
	if passing < 1 || passing > 100 {
		return nil, apierr.Validation("passing score must be between 1 and 100")
	}
	quiz := &types.Quiz{
		Title:                  input.Title,
		Description:            input.Description,
		PassingScorePercentage: passing,
		ShuffleQuestions:       input.ShuffleQuestions,
		ShuffleAnswers:         input.ShuffleAnswers,
	}
	for qi, questionInput := range input.Questions {
		if len(questionInput.Answers) < 2 {
			return nil, apierr.Validation("question %d needs at least two answers", qi+1)
		}
		correctCount := 0
		question := &types.QuizQuestion{
			Question:    questionInput.Question,
			Explanation: questionInput.Explanation,
			Order:       qi + 1,
		}
		for ai, answerInput := range questionInput.Answers {
			if answerInput.IsCorrect {
				correctCount++
			}
			question.Answers = append(question.Answers, &types.QuizAnswer{
				AnswerText:  answerInput.AnswerText,
				IsCorrect:   answerInput.IsCorrect,
				Explanation: answerInput.Explanation,
				Order:       ai + 1,
			})
		}
		if correctCount != 1 {
			return nil, apierr.Validation("question %d needs exactly one correct answer", qi+1)
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

func deriveStepType(input StepInput) string {
	if input.StepType != "" {
		return input.StepType
	}
	attached := 0
	stepType := types.StepTypeArticle
	if input.Article != nil {
		attached++
		stepType = types.StepTypeArticle
	}
	if input.Task != nil {
		attached++
		stepType = types.StepTypeTask
	}
	if input.Quiz != nil {
		attached++
		stepType = types.StepTypeQuiz
	}
	if attached > 1 {
		return types.StepTypeMixed
	}
	return stepType
}
