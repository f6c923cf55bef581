package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

func TestStartTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, buddy, flow := env.startedFlow(t)
	_ = userFlow

	_, err := env.flows.Start(ctx, StartFlowInput{
		UserID:  learner.ID,
		FlowID:  flow.ID,
		ActorID: buddy.ID,
	})
	if !apierr.IsCode(err, apierr.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestStartUnknownFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.createUser(t, "learner@example.com")
	buddy := env.createUser(t, "buddy@example.com", types.RoleBuddy)

	_, err := env.flows.Start(ctx, StartFlowInput{
		UserID:  learner.ID,
		FlowID:  learner.ID,
		ActorID: buddy.ID,
	})
	if !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestStartWithExplicitDeadlineAndExtraBuddies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.createUser(t, "learner@example.com")
	buddy := env.createUser(t, "buddy@example.com", types.RoleBuddy)
	second := env.createUser(t, "second@example.com", types.RoleBuddy)
	flow := env.seedOnboardingFlow(t)

	deadline := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	userFlow, err := env.flows.Start(ctx, StartFlowInput{
		UserID:                 learner.ID,
		FlowID:                 flow.ID,
		ActorID:                buddy.ID,
		ExpectedCompletionDate: &deadline,
		AdditionalBuddyIDs:     []uuid.UUID{second.ID},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !userFlow.ExpectedCompletionDate.Equal(deadline) {
		t.Fatalf("deadline = %v, want %v", userFlow.ExpectedCompletionDate, deadline)
	}
	buddies, err := env.flows.ListBuddies(ctx, userFlow.ID)
	if err != nil {
		t.Fatalf("list buddies: %v", err)
	}
	if len(buddies) != 2 {
		t.Fatalf("buddy count = %d, want 2", len(buddies))
	}
}

func TestPauseRequiresInProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, _ := env.startedFlow(t)

	if _, err := env.flows.Pause(ctx, userFlow.ID, buddy.ID, "first"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := env.flows.Pause(ctx, userFlow.ID, buddy.ID, "second")
	if !apierr.IsCode(err, apierr.CodeInvalidState) {
		t.Fatalf("err = %v, want invalid_state", err)
	}
}

func TestResumeRequiresPaused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, _ := env.startedFlow(t)

	_, err := env.flows.Resume(ctx, userFlow.ID, buddy.ID)
	if !apierr.IsCode(err, apierr.CodeInvalidState) {
		t.Fatalf("err = %v, want invalid_state", err)
	}
}

func TestPauseRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, _, _ := env.startedFlow(t)

	// The learner is not a buddy of their own flow.
	_, err := env.flows.Pause(ctx, userFlow.ID, learner.ID, "")
	if !apierr.IsCode(err, apierr.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}

	moderator := env.createUser(t, "mod@example.com", types.RoleModerator)
	if _, err := env.flows.Pause(ctx, userFlow.ID, moderator.ID, "policy"); err != nil {
		t.Fatalf("moderator pause: %v", err)
	}
}

func TestExtendDeadlineMovesForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, _ := env.startedFlow(t)

	before := *userFlow.ExpectedCompletionDate
	extended, err := env.flows.ExtendDeadline(ctx, userFlow.ID, buddy.ID, 3, nil)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if !extended.ExpectedCompletionDate.After(before) {
		t.Fatalf("deadline %v not after %v", extended.ExpectedCompletionDate, before)
	}

	_, err = env.flows.ExtendDeadline(ctx, userFlow.ID, buddy.ID, 0, nil)
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("err = %v, want validation_error", err)
	}
}

func TestAssignAndRemoveBuddy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, _ := env.startedFlow(t)
	extra := env.createUser(t, "extra@example.com", types.RoleBuddy)

	if _, err := env.flows.AssignBuddy(ctx, userFlow.ID, buddy.ID, extra.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err := env.flows.AssignBuddy(ctx, userFlow.ID, buddy.ID, extra.ID)
	if !apierr.IsCode(err, apierr.CodeConflict) {
		t.Fatalf("err = %v, want conflict on double assign", err)
	}

	if err := env.flows.RemoveBuddy(ctx, userFlow.ID, buddy.ID, extra.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	buddies, err := env.flows.ListBuddies(ctx, userFlow.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(buddies) != 1 {
		t.Fatalf("buddy count = %d, want 1", len(buddies))
	}

	// Re-assignment reactivates the old row.
	if _, err := env.flows.AssignBuddy(ctx, userFlow.ID, buddy.ID, extra.ID); err != nil {
		t.Fatalf("re-assign: %v", err)
	}
}

func TestSuspendBlocksProgressAndIsModeratorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, learner, buddy, flow := env.startedFlow(t)
	steps := env.stepsOf(t, flow.ID)
	moderator := env.createUser(t, "mod@example.com", types.RoleModerator)

	_, err := env.flows.Suspend(ctx, userFlow.ID, buddy.ID, "nope")
	if !apierr.IsCode(err, apierr.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden for non-moderator", err)
	}

	if _, err := env.flows.Suspend(ctx, userFlow.ID, moderator.ID, "policy violation"); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	_, err = env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID)
	if !apierr.IsCode(err, apierr.CodeNotAccessible) {
		t.Fatalf("err = %v, want not_accessible while suspended", err)
	}

	if _, err := env.flows.Unsuspend(ctx, userFlow.ID, moderator.ID); err != nil {
		t.Fatalf("unsuspend: %v", err)
	}
	if _, err := env.progression.MarkArticleRead(ctx, learner.ID, userFlow.ID, steps[0].ID); err != nil {
		t.Fatalf("read after unsuspend: %v", err)
	}
}

func TestSoftDeleteKeepsAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userFlow, _, buddy, _ := env.startedFlow(t)

	if err := env.flows.SoftDelete(ctx, userFlow.ID, buddy.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.flows.GetByID(ctx, userFlow.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("deleted flow still readable: %v", err)
	}

	actions, err := env.audit.ListByUserFlow(ctx, userFlow.ID, 0)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	var sawDeleted bool
	for _, action := range actions {
		if action.ActionType == types.ActionDeleted {
			sawDeleted = true
		}
	}
	if !sawDeleted {
		t.Fatal("deleted action not recorded")
	}
}
