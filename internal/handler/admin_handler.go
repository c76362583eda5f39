package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
	"portfolio-server/internal/service"
)

// defaultPostLoginPath is where the admin lands when no redirect target
// was requested.
const defaultPostLoginPath = "/admin"

// AdminHandler serves the admin login and the prompt version endpoints.
type AdminHandler struct {
	auth         service.AuthService
	prompts      service.PromptService
	sessionTTL   time.Duration
	secureCookie bool
	logger       *zap.Logger
}

func NewAdminHandler(
	auth service.AuthService,
	prompts service.PromptService,
	sessionTTL time.Duration,
	secureCookie bool,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		prompts:      prompts,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger.Named("AdminHandler"),
	}
}

type loginRequest struct {
	Password   string `json:"password" binding:"required"`
	RedirectTo string `json:"redirectTo"`
}

type loginResponse struct {
	Success    bool   `json:"success"`
	RedirectTo string `json:"redirectTo"`
}

// Login authenticates the admin and sets the session cookie. The redirect
// target is restricted to site-local paths so the login endpoint cannot be
// used as an open redirector.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "password is required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(h.sessionTTL.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, loginResponse{Success: true, RedirectTo: sanitizeRedirect(req.RedirectTo)})
}

// Logout clears the session cookie.
func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

// sanitizeRedirect keeps redirect targets inside the admin area. Anything
// else, including protocol-relative tricks like "//host" or "/\host", falls
// back to the admin landing page.
func sanitizeRedirect(target string) string {
	if target == defaultPostLoginPath {
		return target
	}
	if !strings.HasPrefix(target, defaultPostLoginPath+"/") {
		return defaultPostLoginPath
	}
	if strings.Contains(target, "\\") || strings.Contains(target, "://") {
		return defaultPostLoginPath
	}
	return target
}

type savePromptRequest struct {
	AgentType   string `json:"agentType" binding:"required"`
	Prompt      string `json:"prompt" binding:"required"`
	Description string `json:"description"`
	Activate    bool   `json:"activate"`
}

// SavePrompt stores a new prompt version, optionally activating it.
func (h *AdminHandler) SavePrompt(c *gin.Context) {
	var req savePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "agentType and prompt are required"})
		return
	}

	version, err := h.prompts.SaveVersion(c.Request.Context(), service.SaveVersionInput{
		AgentType:   models.AgentType(req.AgentType),
		Prompt:      req.Prompt,
		Description: req.Description,
		Author:      c.GetString("session_subject"),
		Activate:    req.Activate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, version)
}

// ListPrompts returns the version history for one agent type, newest first.
func (h *AdminHandler) ListPrompts(c *gin.Context) {
	agentType := models.AgentType(c.Query("agentType"))
	if !agentType.Valid() {
		handleServiceError(c, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType))
		return
	}

	versions, err := h.prompts.ListVersions(c.Request.Context(), agentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// GetPrompt returns a single version by id.
func (h *AdminHandler) GetPrompt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid version id"})
		return
	}

	version, err := h.prompts.GetVersion(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

// GetActivePrompt returns the currently active version for an agent type.
func (h *AdminHandler) GetActivePrompt(c *gin.Context) {
	agentType := models.AgentType(c.Query("agentType"))
	if !agentType.Valid() {
		handleServiceError(c, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType))
		return
	}

	version, err := h.prompts.GetActiveVersion(c.Request.Context(), agentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

type deployPromptRequest struct {
	AgentType string `json:"agentType" binding:"required"`
	VersionID string `json:"versionId" binding:"required"`
	Message   string `json:"message"`
}

// DeployPrompt activates an existing version. Deploy and rollback are the
// same operation: the target version just differs in age.
func (h *AdminHandler) DeployPrompt(c *gin.Context) {
	var req deployPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "agentType and versionId are required"})
		return
	}
	agentType := models.AgentType(req.AgentType)
	if !agentType.Valid() {
		handleServiceError(c, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType))
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid version id"})
		return
	}

	if err := h.prompts.SetActive(c.Request.Context(), agentType, versionID); err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Prompt version deployed",
		zap.String("agentType", agentType.String()),
		zap.String("versionID", versionID.String()),
		zap.String("message", req.Message))
	c.JSON(http.StatusOK, gin.H{"success": true, "versionId": versionID, "message": req.Message})
}
