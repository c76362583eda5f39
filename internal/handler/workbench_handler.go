package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
	"portfolio-server/internal/service"
)

// WorkbenchHandler serves the admin prompt workbench: AI-assisted prompt
// refinement, prompt test runs and resume update proposals. All routes sit
// behind the session middleware.
type WorkbenchHandler struct {
	workbench service.WorkbenchService
	logger    *zap.Logger
}

func NewWorkbenchHandler(workbench service.WorkbenchService, logger *zap.Logger) *WorkbenchHandler {
	return &WorkbenchHandler{workbench: workbench, logger: logger.Named("WorkbenchHandler")}
}

type refinePromptRequest struct {
	AgentType         string `json:"agentType" binding:"required"`
	CurrentPrompt     string `json:"currentPrompt"`
	RefinementRequest string `json:"refinementRequest" binding:"required"`
}

// RefinePrompt proposes an improved prompt. Nothing is persisted; the admin
// saves the proposal through the prompt endpoints if it looks right.
func (h *WorkbenchHandler) RefinePrompt(c *gin.Context) {
	var req refinePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "agentType and refinementRequest are required"})
		return
	}
	agentType := models.AgentType(req.AgentType)
	if !agentType.Valid() {
		handleServiceError(c, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType))
		return
	}

	result, err := h.workbench.RefinePrompt(c.Request.Context(), agentType, req.CurrentPrompt, req.RefinementRequest)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type testPromptRequest struct {
	PromptText string                   `json:"promptText" binding:"required"`
	AgentType  string                   `json:"agentType"`
	TestCases  []service.PromptTestCase `json:"testCases" binding:"required"`
}

// TestPrompt runs a candidate prompt against a batch of test cases and
// reports per-case results plus an aggregate summary.
func (h *WorkbenchHandler) TestPrompt(c *gin.Context) {
	var req testPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "promptText and testCases are required"})
		return
	}
	if req.AgentType != "" && !models.AgentType(req.AgentType).Valid() {
		handleServiceError(c, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, req.AgentType))
		return
	}

	report, err := h.workbench.TestPrompt(c.Request.Context(), req.PromptText, req.TestCases)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type updateResumeRequest struct {
	UpdateRequest string `json:"updateRequest" binding:"required"`
}

// UpdateResume turns a free-form note into a structured resume change
// proposal. The proposal is returned to the admin for review, never applied
// automatically.
func (h *WorkbenchHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "updateRequest is required"})
		return
	}

	proposal, err := h.workbench.ProposeResumeUpdate(c.Request.Context(), req.UpdateRequest)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}
