package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/onboardhub/onboardhub-backend/internal/requestdata"
	"github.com/onboardhub/onboardhub-backend/internal/services"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

// BuddyHandler serves mentors: starting flows for learners and managing
// the resulting enrollments.
type BuddyHandler struct {
	flows       services.FlowService
	progression services.ProgressionService
	audit       services.AuditService
}

func NewBuddyHandler(flows services.FlowService, progression services.ProgressionService, audit services.AuditService) *BuddyHandler {
	return &BuddyHandler{flows: flows, progression: progression, audit: audit}
}

// GET /api/buddy/flows
func (h *BuddyHandler) ListFlows(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlows, err := h.flows.ListForBuddy(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flows": userFlows})
}

type startFlowRequest struct {
	UserID                 uuid.UUID   `json:"user_id"`
	FlowID                 uuid.UUID   `json:"flow_id"`
	ExpectedCompletionDate *string     `json:"expected_completion_date,omitempty"`
	AdditionalBuddyIDs     []uuid.UUID `json:"additional_buddy_ids,omitempty"`
}

// POST /api/buddy/flows/start
func (h *BuddyHandler) StartFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req startFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	input := services.StartFlowInput{
		UserID:             req.UserID,
		FlowID:             req.FlowID,
		ActorID:            rd.UserID,
		AdditionalBuddyIDs: req.AdditionalBuddyIDs,
	}
	if req.ExpectedCompletionDate != nil {
		deadline, err := time.Parse("2006-01-02", *req.ExpectedCompletionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected_completion_date must be YYYY-MM-DD"})
			return
		}
		input.ExpectedCompletionDate = &deadline
	}
	userFlow, err := h.flows.Start(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_flow": userFlow})
}

type pauseFlowRequest struct {
	Reason string `json:"reason"`
}

// POST /api/buddy/flows/:id/pause
func (h *BuddyHandler) PauseFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	var req pauseFlowRequest
	_ = c.ShouldBindJSON(&req)
	userFlow, err := h.flows.Pause(c.Request.Context(), userFlowID, rd.UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flow": userFlow})
}

// POST /api/buddy/flows/:id/resume
func (h *BuddyHandler) ResumeFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	userFlow, err := h.flows.Resume(c.Request.Context(), userFlowID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flow": userFlow})
}

type extendDeadlineRequest struct {
	AdditionalDays int     `json:"additional_days"`
	Reason         *string `json:"reason,omitempty"`
}

// POST /api/buddy/flows/:id/extend
func (h *BuddyHandler) ExtendDeadline(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	var req extendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	userFlow, err := h.flows.ExtendDeadline(c.Request.Context(), userFlowID, rd.UserID, req.AdditionalDays, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flow": userFlow})
}

// DELETE /api/buddy/flows/:id
func (h *BuddyHandler) DeleteFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	if err := h.flows.SoftDelete(c.Request.Context(), userFlowID, rd.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/buddy/flows/:id/progress
func (h *BuddyHandler) FlowProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	if !h.canMonitor(c, userFlowID, rd) {
		return
	}
	summary, err := h.progression.FlowProgress(c.Request.Context(), userFlowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/buddy/flows/:id/actions
func (h *BuddyHandler) ListActions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	if !h.canMonitor(c, userFlowID, rd) {
		return
	}
	actions, err := h.audit.ListByUserFlow(c.Request.Context(), userFlowID, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

type assignBuddyRequest struct {
	BuddyUserID uuid.UUID `json:"buddy_user_id"`
}

// POST /api/buddy/flows/:id/buddies
func (h *BuddyHandler) AssignBuddy(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	var req assignBuddyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	buddy, err := h.flows.AssignBuddy(c.Request.Context(), userFlowID, rd.UserID, req.BuddyUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"buddy": buddy})
}

// DELETE /api/buddy/flows/:id/buddies/:buddyID
func (h *BuddyHandler) RemoveBuddy(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	buddyUserID, err := uuid.Parse(c.Param("buddyID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buddy user id"})
		return
	}
	if err := h.flows.RemoveBuddy(c.Request.Context(), userFlowID, rd.UserID, buddyUserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/buddy/flows/:id/buddies
func (h *BuddyHandler) ListBuddies(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	if !h.canMonitor(c, userFlowID, rd) {
		return
	}
	buddies, err := h.flows.ListBuddies(c.Request.Context(), userFlowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buddies": buddies})
}

// canMonitor allows moderators and active buddies of the flow. Writes the
// error response itself when access is denied.
func (h *BuddyHandler) canMonitor(c *gin.Context, userFlowID uuid.UUID, rd *requestdata.RequestData) bool {
	if rd.HasRole(types.RoleModerator) {
		return true
	}
	buddies, err := h.flows.ListBuddies(c.Request.Context(), userFlowID)
	if err != nil {
		respondError(c, err)
		return false
	}
	for _, b := range buddies {
		if b.BuddyUserID == rd.UserID {
			return true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	return false
}

func parseUserFlowID(c *gin.Context) (uuid.UUID, bool) {
	userFlowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user flow id"})
		return uuid.Nil, false
	}
	return userFlowID, true
}
