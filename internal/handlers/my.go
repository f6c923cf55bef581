package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/onboardhub/onboardhub-backend/internal/requestdata"
	"github.com/onboardhub/onboardhub-backend/internal/services"
)

// MyHandler serves the learner's own enrollments and step actions.
type MyHandler struct {
	flows       services.FlowService
	progression services.ProgressionService
}

func NewMyHandler(flows services.FlowService, progression services.ProgressionService) *MyHandler {
	return &MyHandler{flows: flows, progression: progression}
}

// GET /api/my/flows
func (h *MyHandler) ListFlows(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlows, err := h.flows.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_flows": userFlows})
}

// GET /api/my/flows/:id/progress
func (h *MyHandler) FlowProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user flow id"})
		return
	}
	summary, err := h.progression.FlowProgress(c.Request.Context(), userFlowID)
	if err != nil {
		respondError(c, err)
		return
	}
	if summary.UserFlow.UserID != rd.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/my/flows/:id/steps/:stepID/read
func (h *MyHandler) MarkArticleRead(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, stepID, ok := parseFlowStepParams(c)
	if !ok {
		return
	}
	result, err := h.progression.MarkArticleRead(c.Request.Context(), rd.UserID, userFlowID, stepID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type taskAnswerRequest struct {
	Answer string `json:"answer"`
}

// POST /api/my/flows/:id/steps/:stepID/task
func (h *MyHandler) SubmitTaskAnswer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, stepID, ok := parseFlowStepParams(c)
	if !ok {
		return
	}
	var req taskAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.progression.SubmitTaskAnswer(c.Request.Context(), rd.UserID, userFlowID, stepID, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quizAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerID   uuid.UUID `json:"answer_id"`
}

// POST /api/my/flows/:id/steps/:stepID/quiz
func (h *MyHandler) SubmitQuizAnswer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	userFlowID, stepID, ok := parseFlowStepParams(c)
	if !ok {
		return
	}
	var req quizAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.progression.SubmitQuizAnswer(c.Request.Context(), rd.UserID, userFlowID, stepID, req.QuestionID, req.AnswerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseFlowStepParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userFlowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user flow id"})
		return uuid.Nil, uuid.Nil, false
	}
	stepID, err := uuid.Parse(c.Param("stepID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userFlowID, stepID, true
}
