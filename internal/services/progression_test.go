package services

import (
	"context"
	"testing"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

func TestFullProgressionToCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	progress := env.progressFor(t, userFlow.ID)
	if got := progress[steps[0].ID].Status; got != types.StepStatusAvailable {
		t.Fatalf("step 1 status = %s, want available", got)
	}
	for i := 1; i < 3; i++ {
		if got := progress[steps[i].ID].Status; got != types.StepStatusLocked {
			t.Fatalf("step %d status = %s, want locked", i+1, got)
		}
	}
	if userFlow.Status != types.FlowStatusInProgress {
		t.Fatalf("user flow status = %s, want in_progress", userFlow.Status)
	}
	if userFlow.ExpectedCompletionDate == nil {
		t.Fatal("expected completion date not computed")
	}
	if userFlow.CurrentStepID == nil || *userFlow.CurrentStepID != steps[0].ID {
		t.Fatal("current step should point at step 1")
	}

	// Step 1: article.
	readResult, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("mark article read: %v", err)
	}
	if !readResult.StepCompleted {
		t.Fatal("reading the article should complete the step")
	}
	progress = env.progressFor(t, userFlow.ID)
	if got := progress[steps[1].ID].Status; got != types.StepStatusAvailable {
		t.Fatalf("step 2 status after step 1 = %s, want available", got)
	}

	// Step 2: wrong answer first.
	taskResult, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "banana")
	if err != nil {
		t.Fatalf("submit wrong task answer: %v", err)
	}
	if taskResult.IsCorrect {
		t.Fatal("banana should not be accepted")
	}
	progress = env.progressFor(t, userFlow.ID)
	if got := progress[steps[1].ID].Status; got != types.StepStatusInProgress {
		t.Fatalf("step 2 status after wrong answer = %s, want in_progress", got)
	}

	// Case and whitespace must not matter.
	taskResult, err = env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "  PineApple ")
	if err != nil {
		t.Fatalf("submit correct task answer: %v", err)
	}
	if !taskResult.IsCorrect || !taskResult.StepCompleted {
		t.Fatalf("correct answer result = %+v, want correct and completed", taskResult)
	}
	progress = env.progressFor(t, userFlow.ID)
	if got := progress[steps[2].ID].Status; got != types.StepStatusAvailable {
		t.Fatalf("step 3 status = %s, want available", got)
	}

	// Step 3: both quiz questions correct.
	quiz := steps[2].Quiz
	for i, question := range quiz.Questions {
		correct := question.CorrectAnswer()
		if correct == nil {
			t.Fatalf("question %d has no correct answer", i+1)
		}
		quizResult, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, steps[2].ID, question.ID, correct.ID)
		if err != nil {
			t.Fatalf("submit quiz answer %d: %v", i+1, err)
		}
		if i == 0 && quizResult.QuizScored {
			t.Fatal("quiz should not be scored before every question is answered")
		}
		if i == 1 {
			if !quizResult.QuizScored || quizResult.Passed == nil || !*quizResult.Passed {
				t.Fatalf("final quiz result = %+v, want scored and passed", quizResult)
			}
			if *quizResult.ScorePercentage != 100 {
				t.Fatalf("score = %d, want 100", *quizResult.ScorePercentage)
			}
			if !quizResult.FlowCompleted {
				t.Fatal("finishing the last step should complete the flow")
			}
		}
	}

	var reloaded types.UserFlow
	if err := env.db.First(&reloaded, "id = ?", userFlow.ID).Error; err != nil {
		t.Fatalf("reload user flow: %v", err)
	}
	if reloaded.Status != types.FlowStatusCompleted {
		t.Fatalf("user flow status = %s, want completed", reloaded.Status)
	}
	if reloaded.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
}

func TestProgressionRecordsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "wrong"); err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if _, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple"); err != nil {
		t.Fatalf("submit right: %v", err)
	}

	progress := env.progressFor(t, userFlow.ID)

	articleSnap, err := env.snapshots.GetArticleSnapshot(ctx, progress[steps[0].ID].ID)
	if err != nil {
		t.Fatalf("article snapshot: %v", err)
	}
	if articleSnap.ArticleTitle != "Welcome to the team" {
		t.Fatalf("article snapshot title = %q", articleSnap.ArticleTitle)
	}

	taskSnap, err := env.snapshots.GetTaskSnapshot(ctx, progress[steps[1].ID].ID)
	if err != nil {
		t.Fatalf("task snapshot: %v", err)
	}
	if taskSnap.AttemptsCount != 2 {
		t.Fatalf("task snapshot attempts = %d, want 2", taskSnap.AttemptsCount)
	}
	if !taskSnap.IsCorrect || taskSnap.UserAnswer != "pineapple" {
		t.Fatalf("task snapshot = %+v, want final correct answer", taskSnap)
	}

	quiz := steps[2].Quiz
	for _, question := range quiz.Questions {
		if _, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, steps[2].ID, question.ID, question.CorrectAnswer().ID); err != nil {
			t.Fatalf("quiz answer: %v", err)
		}
	}
	quizSnap, err := env.snapshots.GetQuizSnapshot(ctx, progress[steps[2].ID].ID)
	if err != nil {
		t.Fatalf("quiz snapshot: %v", err)
	}
	if quizSnap.TotalQuestions != 2 || quizSnap.CorrectAnswers != 2 || !quizSnap.IsPassed {
		t.Fatalf("quiz snapshot = %+v", quizSnap)
	}
	if len(quizSnap.Questions) != 2 {
		t.Fatalf("quiz snapshot has %d questions, want 2", len(quizSnap.Questions))
	}
	if len(quizSnap.UserAnswers) != 2 {
		t.Fatalf("quiz snapshot has %d user answers, want 2", len(quizSnap.UserAnswers))
	}
}

func TestQuizFailureAllowsRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple"); err != nil {
		t.Fatalf("task: %v", err)
	}

	quiz := steps[2].Quiz
	q1, q2 := quiz.Questions[0], quiz.Questions[1]
	var q1Wrong *types.QuizAnswer
	for _, a := range q1.Answers {
		if !a.IsCorrect {
			q1Wrong = a
		}
	}

	if _, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, steps[2].ID, q1.ID, q1Wrong.ID); err != nil {
		t.Fatalf("wrong answer q1: %v", err)
	}
	result, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, steps[2].ID, q2.ID, q2.CorrectAnswer().ID)
	if err != nil {
		t.Fatalf("answer q2: %v", err)
	}
	if !result.QuizScored {
		t.Fatal("quiz should be scored once both questions are answered")
	}
	if *result.ScorePercentage != 50 {
		t.Fatalf("score = %d, want 50", *result.ScorePercentage)
	}
	if *result.Passed {
		t.Fatal("a score of 50 must not pass a threshold of 70")
	}
	if result.StepCompleted {
		t.Fatal("failed quiz must not complete the step")
	}

	// Changing the wrong answer re-scores the quiz.
	retry, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, steps[2].ID, q1.ID, q1.CorrectAnswer().ID)
	if err != nil {
		t.Fatalf("retry q1: %v", err)
	}
	if !retry.QuizScored || retry.Passed == nil || !*retry.Passed {
		t.Fatalf("retry result = %+v, want passed", retry)
	}
	if !retry.FlowCompleted {
		t.Fatal("passing the last quiz should complete the flow")
	}
}

func TestLockedStepNotAccessible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	_, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple")
	if !apierr.IsCode(err, apierr.CodeNotAccessible) {
		t.Fatalf("err = %v, want not_accessible", err)
	}
}

func TestPauseFreezesAccessibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, buddy, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := env.flows.Pause(ctx, userFlow.ID, buddy.ID, "vacation"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	summary, err := env.progression.FlowProgress(ctx, userFlow.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	for i, view := range summary.Steps {
		if view.IsAccessible {
			t.Fatalf("step %d accessible while paused", i+1)
		}
	}

	_, err = env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple")
	if !apierr.IsCode(err, apierr.CodeNotAccessible) {
		t.Fatalf("err = %v, want not_accessible while paused", err)
	}

	if _, err := env.flows.Resume(ctx, userFlow.ID, buddy.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	summary, err = env.progression.FlowProgress(ctx, userFlow.ID)
	if err != nil {
		t.Fatalf("progress after resume: %v", err)
	}
	if !summary.Steps[0].IsAccessible || !summary.Steps[1].IsAccessible {
		t.Fatal("steps 1 and 2 should be accessible again after resume")
	}
	if summary.Steps[2].IsAccessible {
		t.Fatal("step 3 should stay inaccessible until step 2 completes")
	}
}

func TestMarkArticleReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("first read: %v", err)
	}
	result, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !result.StepCompleted {
		t.Fatal("second read should still report the step as completed")
	}
}

func TestTaskCannotBeResubmittedAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple"); err != nil {
		t.Fatalf("task: %v", err)
	}
	_, err := env.progression.SubmitTaskAnswer(ctx, learner.ID, userFlow.ID, steps[1].ID, "pineapple")
	if !apierr.IsCode(err, apierr.CodeInvalidState) {
		t.Fatalf("err = %v, want invalid_state", err)
	}
}

func TestOnlyLearnerMayProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	_, err := env.progression.MarkArticleRead(ctx, buddy.ID, userFlow.ID, steps[0].ID)
	if !apierr.IsCode(err, apierr.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestProgressionRecordsActions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)

	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	actions, err := env.audit.ListByUserFlow(ctx, userFlow.ID, 0)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	seen := map[string]bool{}
	for _, action := range actions {
		seen[action.ActionType] = true
	}
	for _, want := range []string{types.ActionStarted, types.ActionBuddyAssigned, types.ActionStepCompleted} {
		if !seen[want] {
			t.Fatalf("missing %s action, got %v", want, seen)
		}
	}
}

func TestQuizAnswerMustBelongToStepQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedQuizFlow := func(title string) *types.Flow {
		flow, err := env.catalog.CreateFlow(ctx, CreateFlowInput{
			Title: title,
			Steps: []StepInput{
				{
					Title: "Knowledge check",
					Quiz: &QuizInput{
						Title: title + " quiz",
						Questions: []QuizQuestionInput{
							{
								Question: "First question?",
								Answers: []QuizAnswerInput{
									{AnswerText: "right", IsCorrect: true},
									{AnswerText: "wrong"},
								},
							},
							{
								Question: "Second question?",
								Answers: []QuizAnswerInput{
									{AnswerText: "right", IsCorrect: true},
									{AnswerText: "wrong"},
								},
							},
						},
					},
				},
			},
		})
		if err != nil {
			t.Fatalf("seed %s: %v", title, err)
		}
		return flow
	}

	flow := seedQuizFlow("Security basics")
	otherFlow := seedQuizFlow("Office tour")
	learner := env.createUser(t, "quiz-learner@example.com")
	buddy := env.createUser(t, "quiz-buddy@example.com", types.RoleBuddy)
	userFlow, err := env.flows.Start(ctx, StartFlowInput{
		UserID:  learner.ID,
		FlowID:  flow.ID,
		ActorID: buddy.ID,
	})
	if err != nil {
		t.Fatalf("start flow: %v", err)
	}

	quizStep := env.stepsOf(t, flow.ID)[0]
	questions := quizStep.Quiz.Questions
	foreignQuestion := env.stepsOf(t, otherFlow.ID)[0].Quiz.Questions[0]

	answerCount := func() int64 {
		var count int64
		if err := env.db.Model(&types.UserQuizAnswer{}).
			Where("user_flow_id = ?", userFlow.ID).
			Count(&count).Error; err != nil {
			t.Fatalf("count answers: %v", err)
		}
		return count
	}

	// A question from another flow's quiz.
	_, err = env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, quizStep.ID,
		foreignQuestion.ID, foreignQuestion.Answers[0].ID)
	if !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("foreign question err = %v, want not_found", err)
	}
	if got := answerCount(); got != 0 {
		t.Fatalf("foreign question wrote %d answer rows, want 0", got)
	}

	// A real question paired with another question's answer.
	_, err = env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, quizStep.ID,
		questions[0].ID, questions[1].Answers[0].ID)
	if !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("mismatched answer err = %v, want not_found", err)
	}
	if got := answerCount(); got != 0 {
		t.Fatalf("mismatched answer wrote %d answer rows, want 0", got)
	}

	// The matching pair still goes through.
	result, err := env.progression.SubmitQuizAnswer(ctx, learner.ID, userFlow.ID, quizStep.ID,
		questions[0].ID, questions[0].CorrectAnswer().ID)
	if err != nil {
		t.Fatalf("valid submission: %v", err)
	}
	if !result.IsCorrect || result.AnsweredCount != 1 {
		t.Fatalf("valid submission result = %+v, want correct with one answer", result)
	}
	if got := answerCount(); got != 1 {
		t.Fatalf("answer rows = %d, want 1", got)
	}
}
