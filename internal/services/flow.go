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

// StartFlowInput names the start parameters. ExpectedCompletionDate is
// optional; when nil the deadline is computed from step time estimates.
type StartFlowInput struct {
	UserID                 uuid.UUID
	FlowID                 uuid.UUID
	ActorID                uuid.UUID
	ExpectedCompletionDate *time.Time
	AdditionalBuddyIDs     []uuid.UUID
}

// FlowService owns the enrollment lifecycle: start, pause, resume,
// suspension, deadline extension, buddy management and soft delete. Each
// mutation runs in one transaction; audit rows and bus events are recorded
// after commit.
type FlowService interface {
	Start(ctx context.Context, input StartFlowInput) (*types.UserFlow, error)
	Pause(ctx context.Context, userFlowID, actorID uuid.UUID, reason string) (*types.UserFlow, error)
	Resume(ctx context.Context, userFlowID, actorID uuid.UUID) (*types.UserFlow, error)
	Suspend(ctx context.Context, userFlowID, actorID uuid.UUID, reason string) (*types.UserFlow, error)
	Unsuspend(ctx context.Context, userFlowID, actorID uuid.UUID) (*types.UserFlow, error)
	ExtendDeadline(ctx context.Context, userFlowID, actorID uuid.UUID, additionalDays int, reason *string) (*types.UserFlow, error)
	SoftDelete(ctx context.Context, userFlowID, actorID uuid.UUID) error
	AssignBuddy(ctx context.Context, userFlowID, actorID, buddyUserID uuid.UUID) (*types.FlowBuddy, error)
	RemoveBuddy(ctx context.Context, userFlowID, actorID, buddyUserID uuid.UUID) error
	GetByID(ctx context.Context, userFlowID uuid.UUID) (*types.UserFlow, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserFlow, error)
	ListForBuddy(ctx context.Context, buddyUserID uuid.UUID) ([]*types.UserFlow, error)
	ListBuddies(ctx context.Context, userFlowID uuid.UUID) ([]*types.FlowBuddy, error)
}

type flowService struct {
	db           *gorm.DB
	userRepo     repos.UserRepo
	flowRepo     repos.FlowRepo
	stepRepo     repos.FlowStepRepo
	userFlowRepo repos.UserFlowRepo
	progressRepo repos.UserStepProgressRepo
	buddyRepo    repos.FlowBuddyRepo
	deadline     DeadlineService
	audit        AuditService
	log          *logger.Logger
}

func NewFlowService(
	db *gorm.DB,
	userRepo repos.UserRepo,
	flowRepo repos.FlowRepo,
	stepRepo repos.FlowStepRepo,
	userFlowRepo repos.UserFlowRepo,
	progressRepo repos.UserStepProgressRepo,
	buddyRepo repos.FlowBuddyRepo,
	deadline DeadlineService,
	audit AuditService,
	baseLog *logger.Logger,
) FlowService {
	return &flowService{
		db:           db,
		userRepo:     userRepo,
		flowRepo:     flowRepo,
		stepRepo:     stepRepo,
		userFlowRepo: userFlowRepo,
		progressRepo: progressRepo,
		buddyRepo:    buddyRepo,
		deadline:     deadline,
		audit:        audit,
		log:          baseLog.With("service", "FlowService"),
	}
}

func (s *flowService) Start(ctx context.Context, input StartFlowInput) (*types.UserFlow, error) {
	var created *types.UserFlow
	var buddyIDs []uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		learner, err := s.userRepo.GetByID(ctx, tx, input.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("user %s not found", input.UserID)
		}
		if err != nil {
			return err
		}
		if !learner.IsActive {
			return apierr.Validation("user %s is deactivated", input.UserID)
		}

		flow, err := s.flowRepo.GetActiveByID(ctx, tx, input.FlowID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("flow %s not found", input.FlowID)
		}
		if err != nil {
			return err
		}

		existing, err := s.userFlowRepo.GetByUserAndFlow(ctx, tx, input.UserID, input.FlowID)
		if err == nil && existing.IsActiveStatus() {
			return apierr.Conflict("user %s already has an active instance of flow %s", input.UserID, input.FlowID)
		}
		if err == nil {
			return apierr.Conflict("user %s already has an instance of flow %s", input.UserID, input.FlowID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		steps, err := s.stepRepo.GetActiveByFlowID(ctx, tx, flow.ID)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			return apierr.Validation("flow %s has no active steps", flow.ID)
		}

		now := time.Now().UTC()
		deadline := input.ExpectedCompletionDate
		if deadline == nil {
			computed, err := s.deadline.ExpectedCompletionDate(ctx, tx, now, steps)
			if err != nil {
				return err
			}
			deadline = &computed
		}

		firstStepID := steps[0].ID
		userFlow := &types.UserFlow{
			UserID:                 input.UserID,
			FlowID:                 flow.ID,
			Status:                 types.FlowStatusInProgress,
			CurrentStepID:          &firstStepID,
			ExpectedCompletionDate: deadline,
			StartedAt:              &now,
		}
		if _, err := s.userFlowRepo.Create(ctx, tx, userFlow); err != nil {
			return err
		}

		progressRows := make([]*types.UserStepProgress, 0, len(steps))
		for i, step := range steps {
			status := types.StepStatusLocked
			if i == 0 {
				status = types.StepStatusAvailable
			}
			progressRows = append(progressRows, &types.UserStepProgress{
				UserFlowID: userFlow.ID,
				FlowStepID: step.ID,
				Status:     status,
			})
		}
		if _, err := s.progressRepo.CreateBatch(ctx, tx, progressRows); err != nil {
			return err
		}

		buddyIDs = buddyIDs[:0]
		seen := map[uuid.UUID]bool{}
		for _, buddyUserID := range append([]uuid.UUID{input.ActorID}, input.AdditionalBuddyIDs...) {
			if seen[buddyUserID] {
				continue
			}
			seen[buddyUserID] = true
			if _, err := s.userRepo.GetByID(ctx, tx, buddyUserID); errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("buddy user %s not found", buddyUserID)
			} else if err != nil {
				return err
			}
			actorID := input.ActorID
			if _, err := s.buddyRepo.Create(ctx, tx, &types.FlowBuddy{
				UserFlowID:        userFlow.ID,
				BuddyUserID:       buddyUserID,
				CanPauseFlow:      true,
				CanResumeFlow:     true,
				CanExtendDeadline: true,
				AssignedByID:      &actorID,
				AssignedAt:        now,
				IsActive:          true,
			}); err != nil {
				return err
			}
			buddyIDs = append(buddyIDs, buddyUserID)
		}

		created = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, created.ID, types.ActionStarted, input.ActorID, nil, map[string]interface{}{
		"flow_id": input.FlowID.String(),
		"user_id": input.UserID.String(),
	})
	for _, buddyUserID := range buddyIDs {
		s.audit.Record(ctx, created.ID, types.ActionBuddyAssigned, input.ActorID, nil, map[string]interface{}{
			"buddy_user_id": buddyUserID.String(),
		})
	}
	return created, nil
}

func (s *flowService) Pause(ctx context.Context, userFlowID, actorID uuid.UUID, reason string) (*types.UserFlow, error) {
	var paused *types.UserFlow
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityPause); err != nil {
			return err
		}
		if userFlow.Status != types.FlowStatusInProgress {
			return apierr.InvalidState("cannot pause flow in status %s", userFlow.Status)
		}
		now := time.Now().UTC()
		userFlow.Status = types.FlowStatusPaused
		userFlow.PausedByID = &actorID
		userFlow.PausedAt = &now
		if reason != "" {
			userFlow.PauseReason = &reason
		}
		if err := s.userFlowRepo.Save(ctx, tx, userFlow); err != nil {
			return err
		}
		paused = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	s.audit.Record(ctx, paused.ID, types.ActionPaused, actorID, reasonPtr, nil)
	return paused, nil
}

func (s *flowService) Resume(ctx context.Context, userFlowID, actorID uuid.UUID) (*types.UserFlow, error) {
	var resumed *types.UserFlow
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityResume); err != nil {
			return err
		}
		if userFlow.Status != types.FlowStatusPaused {
			return apierr.InvalidState("cannot resume flow in status %s", userFlow.Status)
		}
		userFlow.Status = types.FlowStatusInProgress
		userFlow.PausedByID = nil
		userFlow.PausedAt = nil
		userFlow.PauseReason = nil
		if err := s.userFlowRepo.Save(ctx, tx, userFlow); err != nil {
			return err
		}
		resumed = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, resumed.ID, types.ActionResumed, actorID, nil, nil)
	return resumed, nil
}

func (s *flowService) Suspend(ctx context.Context, userFlowID, actorID uuid.UUID, reason string) (*types.UserFlow, error) {
	var suspended *types.UserFlow
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireModerator(ctx, tx, actorID); err != nil {
			return err
		}
		if !userFlow.IsActiveStatus() {
			return apierr.InvalidState("cannot suspend flow in status %s", userFlow.Status)
		}
		userFlow.Status = types.FlowStatusSuspended
		if err := s.userFlowRepo.Save(ctx, tx, userFlow); err != nil {
			return err
		}
		suspended = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	s.audit.Record(ctx, suspended.ID, types.ActionPaused, actorID, reasonPtr, map[string]interface{}{
		"suspended": true,
	})
	return suspended, nil
}

func (s *flowService) Unsuspend(ctx context.Context, userFlowID, actorID uuid.UUID) (*types.UserFlow, error) {
	var restored *types.UserFlow
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireModerator(ctx, tx, actorID); err != nil {
			return err
		}
		if userFlow.Status != types.FlowStatusSuspended {
			return apierr.InvalidState("cannot unsuspend flow in status %s", userFlow.Status)
		}
		userFlow.Status = types.FlowStatusInProgress
		if err := s.userFlowRepo.Save(ctx, tx, userFlow); err != nil {
			return err
		}
		restored = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, restored.ID, types.ActionResumed, actorID, nil, map[string]interface{}{
		"unsuspended": true,
	})
	return restored, nil
}

func (s *flowService) ExtendDeadline(ctx context.Context, userFlowID, actorID uuid.UUID, additionalDays int, reason *string) (*types.UserFlow, error) {
	if additionalDays <= 0 {
		return nil, apierr.Validation("additional days must be positive")
	}
	var extended *types.UserFlow
	var oldDeadline, newDeadline time.Time
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityExtendDeadline); err != nil {
			return err
		}
		if !userFlow.IsActiveStatus() {
			return apierr.InvalidState("cannot extend deadline of flow in status %s", userFlow.Status)
		}
		base := time.Now().UTC()
		if userFlow.ExpectedCompletionDate != nil {
			base = *userFlow.ExpectedCompletionDate
		}
		oldDeadline = base
		computed, err := s.deadline.AddWorkingDays(ctx, tx, base, additionalDays)
		if err != nil {
			return err
		}
		newDeadline = computed
		userFlow.ExpectedCompletionDate = &computed
		if err := s.userFlowRepo.Save(ctx, tx, userFlow); err != nil {
			return err
		}
		extended = userFlow
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, extended.ID, types.ActionExtendedDeadline, actorID, reason, map[string]interface{}{
		"previous_deadline": oldDeadline.Format("2006-01-02"),
		"new_deadline":      newDeadline.Format("2006-01-02"),
		"additional_days":   additionalDays,
	})
	return extended, nil
}

// SoftDelete tombstones the enrollment. Step progress, snapshots and the
// action log survive.
func (s *flowService) SoftDelete(ctx context.Context, userFlowID, actorID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityAnyBuddy); err != nil {
			return err
		}
		return s.userFlowRepo.SoftDelete(ctx, tx, userFlow.ID)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, userFlowID, types.ActionDeleted, actorID, nil, nil)
	return nil
}

func (s *flowService) AssignBuddy(ctx context.Context, userFlowID, actorID, buddyUserID uuid.UUID) (*types.FlowBuddy, error) {
	var assigned *types.FlowBuddy
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityAnyBuddy); err != nil {
			return err
		}
		if _, err := s.userRepo.GetByID(ctx, tx, buddyUserID); errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("buddy user %s not found", buddyUserID)
		} else if err != nil {
			return err
		}
		existing, err := s.buddyRepo.GetByUserFlowAndBuddy(ctx, tx, userFlow.ID, buddyUserID)
		if err == nil {
			if existing.IsActive {
				return apierr.Conflict("user %s is already a buddy of this flow", buddyUserID)
			}
			existing.IsActive = true
			existing.AssignedByID = &actorID
			existing.AssignedAt = time.Now().UTC()
			if err := s.buddyRepo.Save(ctx, tx, existing); err != nil {
				return err
			}
			assigned = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := &types.FlowBuddy{
			UserFlowID:        userFlow.ID,
			BuddyUserID:       buddyUserID,
			CanPauseFlow:      true,
			CanResumeFlow:     true,
			CanExtendDeadline: true,
			AssignedByID:      &actorID,
			AssignedAt:        time.Now().UTC(),
			IsActive:          true,
		}
		if _, err := s.buddyRepo.Create(ctx, tx, row); err != nil {
			return err
		}
		assigned = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, userFlowID, types.ActionBuddyAssigned, actorID, nil, map[string]interface{}{
		"buddy_user_id": buddyUserID.String(),
	})
	return assigned, nil
}

func (s *flowService) RemoveBuddy(ctx context.Context, userFlowID, actorID, buddyUserID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		userFlow, err := s.lockUserFlow(ctx, tx, userFlowID)
		if err != nil {
			return err
		}
		if err := s.requireCapability(ctx, tx, userFlow, actorID, capabilityAnyBuddy); err != nil {
			return err
		}
		buddy, err := s.buddyRepo.GetActiveByUserFlowAndBuddy(ctx, tx, userFlow.ID, buddyUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("user %s is not an active buddy of this flow", buddyUserID)
		}
		if err != nil {
			return err
		}
		buddy.IsActive = false
		return s.buddyRepo.Save(ctx, tx, buddy)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, userFlowID, types.ActionBuddyRemoved, actorID, nil, map[string]interface{}{
		"buddy_user_id": buddyUserID.String(),
	})
	return nil
}

func (s *flowService) GetByID(ctx context.Context, userFlowID uuid.UUID) (*types.UserFlow, error) {
	userFlow, err := s.userFlowRepo.GetByID(ctx, nil, userFlowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("user flow %s not found", userFlowID)
	}
	return userFlow, err
}

func (s *flowService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserFlow, error) {
	return s.userFlowRepo.ListByUser(ctx, nil, userID)
}

func (s *flowService) ListForBuddy(ctx context.Context, buddyUserID uuid.UUID) ([]*types.UserFlow, error) {
	return s.userFlowRepo.ListByBuddy(ctx, nil, buddyUserID)
}

func (s *flowService) ListBuddies(ctx context.Context, userFlowID uuid.UUID) ([]*types.FlowBuddy, error) {
	return s.buddyRepo.ListActiveByUserFlow(ctx, nil, userFlowID)
}

func (s *flowService) lockUserFlow(ctx context.Context, tx *gorm.DB, userFlowID uuid.UUID) (*types.UserFlow, error) {
	userFlow, err := s.userFlowRepo.GetByIDForUpdate(ctx, tx, userFlowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("user flow %s not found", userFlowID)
	}
	if err != nil {
		return nil, err
	}
	return userFlow, nil
}

type buddyCapability int

const (
	capabilityPause buddyCapability = iota
	capabilityResume
	capabilityExtendDeadline
	capabilityAnyBuddy
)

// requireCapability authorizes a lifecycle action: moderators may always
// act, otherwise the actor needs an active buddy row with the matching flag.
func (s *flowService) requireCapability(ctx context.Context, tx *gorm.DB, userFlow *types.UserFlow, actorID uuid.UUID, capability buddyCapability) error {
	actor, err := s.userRepo.GetByID(ctx, tx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound("user %s not found", actorID)
	}
	if err != nil {
		return err
	}
	if actor.HasRole(types.RoleModerator) {
		return nil
	}
	buddy, err := s.buddyRepo.GetActiveByUserFlowAndBuddy(ctx, tx, userFlow.ID, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.Forbidden("user %s is not a buddy of this flow", actorID)
	}
	if err != nil {
		return err
	}
	switch capability {
	case capabilityPause:
		if !buddy.CanPauseFlow {
			return apierr.Forbidden("buddy %s may not pause this flow", actorID)
		}
	case capabilityResume:
		if !buddy.CanResumeFlow {
			return apierr.Forbidden("buddy %s may not resume this flow", actorID)
		}
	case capabilityExtendDeadline:
		if !buddy.CanExtendDeadline {
			return apierr.Forbidden("buddy %s may not extend this flow's deadline", actorID)
		}
	case capabilityAnyBuddy:
	}
	return nil
}

func (s *flowService) requireModerator(ctx context.Context, tx *gorm.DB, actorID uuid.UUID) error {
	actor, err := s.userRepo.GetByID(ctx, tx, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound("user %s not found", actorID)
	}
	if err != nil {
		return err
	}
	if !actor.HasRole(types.RoleModerator) {
		return apierr.Forbidden("user %s is not a moderator", actorID)
	}
	return nil
}
