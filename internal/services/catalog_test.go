package services

import (
	"context"
	"testing"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

func TestCreateFlowValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.CreateFlow(ctx, CreateFlowInput{})
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("missing title: err = %v, want validation_error", err)
	}

	_, err = env.catalog.CreateFlow(ctx, CreateFlowInput{
		Title: "Empty step",
		Steps: []StepInput{{Title: "No content"}},
	})
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("contentless step: err = %v, want validation_error", err)
	}

	_, err = env.catalog.CreateFlow(ctx, CreateFlowInput{
		Title: "Bad quiz",
		Steps: []StepInput{{
			Title: "Quiz",
			Quiz: &QuizInput{
				Title: "Broken",
				Questions: []QuizQuestionInput{{
					Question: "Pick one",
					Answers: []QuizAnswerInput{
						{AnswerText: "a", IsCorrect: true},
						{AnswerText: "b", IsCorrect: true},
					},
				}},
			},
		}},
	})
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("two correct answers: err = %v, want validation_error", err)
	}
}

func TestCreateFlowAssignsOrdersAndTypes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flow := env.seedOnboardingFlow(t)
	steps := env.stepsOf(t, flow.ID)
	if len(steps) != 3 {
		t.Fatalf("step count = %d, want 3", len(steps))
	}
	for i, step := range steps {
		if step.Order != i+1 {
			t.Fatalf("step %d order = %d", i, step.Order)
		}
	}
	if steps[0].StepType != types.StepTypeArticle || steps[1].StepType != types.StepTypeTask || steps[2].StepType != types.StepTypeQuiz {
		t.Fatalf("derived step types = %s, %s, %s", steps[0].StepType, steps[1].StepType, steps[2].StepType)
	}
	if steps[2].Quiz == nil || len(steps[2].Quiz.Questions) != 2 {
		t.Fatal("quiz tree not created")
	}
	if len(steps[2].Quiz.Questions[0].Answers) != 2 {
		t.Fatal("quiz answers not created")
	}

	step, err := env.catalog.AddStep(ctx, flow.ID, StepInput{
		Title:   "Wrap up",
		Article: &ArticleInput{Title: "Goodbye"},
	})
	if err != nil {
		t.Fatalf("add step: %v", err)
	}
	if step.Order != 4 {
		t.Fatalf("appended step order = %d, want 4", step.Order)
	}
}

func TestSoftDeleteFlowHidesSteps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flow := env.seedOnboardingFlow(t)
	if err := env.catalog.SoftDeleteFlow(ctx, flow.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.catalog.GetFlow(ctx, flow.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("deleted flow readable: %v", err)
	}
	if steps := env.stepsOf(t, flow.ID); len(steps) != 0 {
		t.Fatalf("deleted flow still has %d visible steps", len(steps))
	}
}

func TestStartRejectedForDeletedFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.createUser(t, "learner@example.com")
	buddy := env.createUser(t, "buddy@example.com", types.RoleBuddy)
	flow := env.seedOnboardingFlow(t)

	if err := env.catalog.SoftDeleteFlow(ctx, flow.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := env.flows.Start(ctx, StartFlowInput{UserID: learner.ID, FlowID: flow.ID, ActorID: buddy.ID})
	if !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}
