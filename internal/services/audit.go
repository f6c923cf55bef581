package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/onboardhub/onboardhub-backend/internal/clients/redis"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// AuditService appends lifecycle actions to the audit log and mirrors them
// onto the flow event bus. Recording is best effort: a failed insert is
// logged and swallowed so it can never undo the state change it describes.
type AuditService interface {
	Record(ctx context.Context, userFlowID uuid.UUID, actionType string, performedByID uuid.UUID, reason *string, metadata map[string]interface{})
	ListByUserFlow(ctx context.Context, userFlowID uuid.UUID, limit int) ([]*types.FlowAction, error)
}

type auditService struct {
	actionRepo repos.FlowActionRepo
	bus        redis.FlowEventBus
	log        *logger.Logger
}

func NewAuditService(actionRepo repos.FlowActionRepo, bus redis.FlowEventBus, baseLog *logger.Logger) AuditService {
	return &auditService{
		actionRepo: actionRepo,
		bus:        bus,
		log:        baseLog.With("service", "AuditService"),
	}
}

func (s *auditService) Record(ctx context.Context, userFlowID uuid.UUID, actionType string, performedByID uuid.UUID, reason *string, metadata map[string]interface{}) {
	now := time.Now().UTC()
	action := &types.FlowAction{
		UserFlowID:    userFlowID,
		ActionType:    actionType,
		PerformedByID: performedByID,
		Reason:        reason,
		PerformedAt:   now,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("Dropping unserializable action metadata", "action", actionType, "error", err)
		} else {
			action.Metadata = datatypes.JSON(raw)
		}
	}
	if _, err := s.actionRepo.Create(ctx, nil, action); err != nil {
		s.log.Error("Failed to record flow action", "action", actionType, "user_flow_id", userFlowID, "error", err)
		return
	}
	if err := s.bus.Publish(ctx, redis.FlowEvent{
		UserFlowID:    userFlowID,
		ActionType:    actionType,
		PerformedByID: performedByID,
		OccurredAt:    now,
	}); err != nil {
		s.log.Warn("Failed to publish flow event", "action", actionType, "error", err)
	}
}

func (s *auditService) ListByUserFlow(ctx context.Context, userFlowID uuid.UUID, limit int) ([]*types.FlowAction, error) {
	return s.actionRepo.ListByUserFlow(ctx, nil, userFlowID, limit)
}
