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

// AdminHandler serves moderators: content management, user provisioning
// and administrative enrollment actions.
type AdminHandler struct {
	catalog services.CatalogService
	flows   services.FlowService
	auth    services.AuthService
}

func NewAdminHandler(catalog services.CatalogService, flows services.FlowService, auth services.AuthService) *AdminHandler {
	return &AdminHandler{catalog: catalog, flows: flows, auth: auth}
}

// POST /api/admin/flows
func (h *AdminHandler) CreateFlow(c *gin.Context) {
	var input services.CreateFlowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	flow, err := h.catalog.CreateFlow(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flow": flow})
}

// GET /api/admin/flows
func (h *AdminHandler) ListFlows(c *gin.Context) {
	flows, err := h.catalog.ListFlows(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flows": flows})
}

// GET /api/admin/flows/:id
func (h *AdminHandler) GetFlow(c *gin.Context) {
	flowID, ok := parseFlowID(c)
	if !ok {
		return
	}
	flow, err := h.catalog.GetFlow(c.Request.Context(), flowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// PATCH /api/admin/flows/:id
func (h *AdminHandler) UpdateFlow(c *gin.Context) {
	flowID, ok := parseFlowID(c)
	if !ok {
		return
	}
	var input services.UpdateFlowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	flow, err := h.catalog.UpdateFlow(c.Request.Context(), flowID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// DELETE /api/admin/flows/:id
func (h *AdminHandler) DeleteFlow(c *gin.Context) {
	flowID, ok := parseFlowID(c)
	if !ok {
		return
	}
	if err := h.catalog.SoftDeleteFlow(c.Request.Context(), flowID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/flows/:id/steps
func (h *AdminHandler) AddStep(c *gin.Context) {
	flowID, ok := parseFlowID(c)
	if !ok {
		return
	}
	var input services.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	step, err := h.catalog.AddStep(c.Request.Context(), flowID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"step": step})
}

// DELETE /api/admin/flows/:id/steps/:stepID
func (h *AdminHandler) DeleteStep(c *gin.Context) {
	flowID, ok := parseFlowID(c)
	if !ok {
		return
	}
	stepID, err := uuid.Parse(c.Param("stepID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step id"})
		return
	}
	if err := h.catalog.SoftDeleteStep(c.Request.Context(), flowID, stepID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type calendarEntry struct {
	Date         string `json:"date"`
	IsWorkingDay bool   `json:"is_working_day"`
	Description  string `json:"description"`
}

type upsertCalendarRequest struct {
	Entries []calendarEntry `json:"entries"`
}

// POST /api/admin/calendar
func (h *AdminHandler) UpsertCalendar(c *gin.Context) {
	var req upsertCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	rows := make([]*types.WorkingCalendar, 0, len(req.Entries))
	for _, e := range req.Entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "calendar dates must be YYYY-MM-DD"})
			return
		}
		rows = append(rows, &types.WorkingCalendar{
			Date:         date,
			IsWorkingDay: e.IsWorkingDay,
			Description:  e.Description,
		})
	}
	if err := h.catalog.UpsertCalendar(c.Request.Context(), rows); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": len(rows)})
}

type createUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}

// POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.RegisterUser(c.Request.Context(), services.RegisterUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     req.Roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

// POST /api/admin/user-flows/:id/suspend
func (h *AdminHandler) SuspendUserFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	var req suspendRequest
	_ = c.ShouldBindJSON(&req)
	userFlow, err := h.flows.Suspend(c.Request.Context(), userFlowID, rd.UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flow": userFlow})
}

// POST /api/admin/user-flows/:id/unsuspend
func (h *AdminHandler) UnsuspendUserFlow(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, ok := parseUserFlowID(c)
	if !ok {
		return
	}
	userFlow, err := h.flows.Unsuspend(c.Request.Context(), userFlowID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flow": userFlow})
}

func parseFlowID(c *gin.Context) (uuid.UUID, bool) {
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flow id"})
		return uuid.Nil, false
	}
	return flowID, true
}
