package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
	"portfolio-server/internal/service"
)

// PublicHandler serves the visitor-facing AI endpoints and the blog posts.
type PublicHandler struct {
	assistant service.AssistantService
	posts     interfaces.BlogPostRepository
	logger    *zap.Logger
}

func NewPublicHandler(assistant service.AssistantService, posts interfaces.BlogPostRepository, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{assistant: assistant, posts: posts, logger: logger.Named("PublicHandler")}
}

type chatRequest struct {
	Message string                `json:"message" binding:"required"`
	History []service.ChatMessage `json:"history"`
}

// Chat answers a visitor question about the site owner.
func (h *PublicHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "message is required"})
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

type fitAssessmentRequest struct {
	JobDescription string `json:"jobDescription" binding:"required"`
}

// AssessFit scores a pasted job description against the resume.
func (h *PublicHandler) AssessFit(c *gin.Context) {
	var req fitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "jobDescription is required"})
		return
	}

	assessment, err := h.assistant.AssessFit(c.Request.Context(), req.JobDescription)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// ListPosts returns all blog posts.
func (h *PublicHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns one blog post by id.
func (h *PublicHandler) GetPost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid post id"})
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type blogPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// CreatePost stores a new blog post and runs metadata analysis on it.
func (h *PublicHandler) CreatePost(c *gin.Context) {
	var req blogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title and content are required"})
		return
	}

	post := &models.BlogPost{Title: req.Title, Content: req.Content}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		handleServiceError(c, err)
		return
	}
	// Analysis failure must not lose the post; metadata can be regenerated.
	if _, err := h.assistant.AnalyzeBlogPost(c.Request.Context(), post.ID); err != nil {
		h.logger.Warn("Metadata analysis for new post failed",
			zap.String("postID", post.ID.String()), zap.Error(err))
	}

	stored, err := h.posts.GetByID(c.Request.Context(), post.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// UpdatePost edits a post. Metadata is only regenerated when the content
// fingerprint changed.
func (h *PublicHandler) UpdatePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid post id"})
		return
	}
	var req blogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title and content are required"})
		return
	}

	post := &models.BlogPost{ID: id, Title: req.Title, Content: req.Content}
	if err := h.posts.Update(c.Request.Context(), post); err != nil {
		handleServiceError(c, err)
		return
	}
	if _, err := h.assistant.AnalyzeBlogPost(c.Request.Context(), id); err != nil {
		h.logger.Warn("Metadata analysis for updated post failed",
			zap.String("postID", id.String()), zap.Error(err))
	}

	stored, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// AnalyzePost re-runs metadata analysis for one post on demand.
func (h *PublicHandler) AnalyzePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid post id"})
		return
	}

	analysis, err := h.assistant.AnalyzeBlogPost(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
