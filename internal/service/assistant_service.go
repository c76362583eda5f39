package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-server/internal/contenthash"
	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
	"portfolio-server/internal/prompttmpl"
)

// Guardrails for chat input. Oversized messages and runaway histories are
// rejected before any hosted-model call.
const (
	MaxChatMessageChars   = 2000
	MaxChatHistoryEntries = 20
	maxRecentPostsInCtx   = 5
)

// ChatMessage is one turn of the visitor conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatReply carries the assistant answer plus token accounting.
type ChatReply struct {
	Reply string                `json:"reply"`
	Usage interfaces.TokenUsage `json:"usage"`
}

// FitAssessment is the structured result of matching the resume against a
// job description.
type FitAssessment struct {
	Score     int      `json:"score"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Summary   string   `json:"summary"`
}

// BlogAnalysis reports the outcome of a metadata analysis request. Skipped
// is true when the content fingerprint matched the stored one and no
// hosted-model call was made.
type BlogAnalysis struct {
	Analyzed bool     `json:"analyzed"`
	Skipped  bool     `json:"skipped"`
	Tags     []string `json:"tags"`
	Excerpt  string   `json:"excerpt"`
}

// AssistantService serves the public AI features: visitor chat, job fit
// assessment and blog metadata analysis.
type AssistantService interface {
	Chat(ctx context.Context, message string, history []ChatMessage) (*ChatReply, error)
	AssessFit(ctx context.Context, jobDescription string) (*FitAssessment, error)
	AnalyzeBlogPost(ctx context.Context, postID uuid.UUID) (*BlogAnalysis, error)
}

type AssistantServiceImpl struct {
	prompts    PromptService
	posts      interfaces.BlogPostRepository
	ai         interfaces.AIClient
	resume     string
	categories []string
	logger     *zap.Logger
}

func NewAssistantService(
	prompts PromptService,
	posts interfaces.BlogPostRepository,
	ai interfaces.AIClient,
	resume string,
	categories []string,
	logger *zap.Logger,
) *AssistantServiceImpl {
	return &AssistantServiceImpl{
		prompts:    prompts,
		posts:      posts,
		ai:         ai,
		resume:     resume,
		categories: categories,
		logger:     logger.Named("AssistantService"),
	}
}

func (s *AssistantServiceImpl) Chat(ctx context.Context, message string, history []ChatMessage) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", models.ErrInvalidInput)
	}
	if len(message) > MaxChatMessageChars {
		return nil, fmt.Errorf("%w: message exceeds %d characters", models.ErrInvalidInput, MaxChatMessageChars)
	}
	if len(history) > MaxChatHistoryEntries {
		return nil, fmt.Errorf("%w: history exceeds %d entries", models.ErrInvalidInput, MaxChatHistoryEntries)
	}

	active, err := s.prompts.GetActiveVersion(ctx, models.AgentTypeChat)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := prompttmpl.Render(active.Prompt, map[string]string{
		prompttmpl.PlaceholderResumeContext: s.resume,
		prompttmpl.PlaceholderUserContext:   formatHistory(history),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render chat prompt: %w", err)
	}

	result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserInput:    message,
	})
	if err != nil {
		return nil, err
	}
	return &ChatReply{Reply: result.Text, Usage: result.Usage}, nil
}

func (s *AssistantServiceImpl) AssessFit(ctx context.Context, jobDescription string) (*FitAssessment, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, fmt.Errorf("%w: job description must not be empty", models.ErrInvalidInput)
	}

	active, err := s.prompts.GetActiveVersion(ctx, models.AgentTypeFitAssessment)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := prompttmpl.Render(active.Prompt, map[string]string{
		prompttmpl.PlaceholderResumeContext: s.resume,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render fit assessment prompt: %w", err)
	}

	result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserInput:    jobDescription,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var assessment FitAssessment
	if err := json.Unmarshal([]byte(result.Text), &assessment); err != nil {
		s.logger.Error("Failed to parse fit assessment response", zap.Error(err))
		return nil, fmt.Errorf("%w: unparsable fit assessment response", models.ErrAIGenerationFailed)
	}
	return &assessment, nil
}

// AnalyzeBlogPost regenerates tags and excerpt for a post, but only when
// the title or body changed since the last analysis. The stored fingerprint
// gates the hosted-model call.
func (s *AssistantServiceImpl) AnalyzeBlogPost(ctx context.Context, postID uuid.UUID) (*BlogAnalysis, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	content := post.Title + "\n" + post.Content
	if !contenthash.Changed(content, post.ContentHash) {
		s.logger.Debug("Blog post unchanged since last analysis, skipping",
			zap.String("postID", postID.String()))
		return &BlogAnalysis{Skipped: true, Tags: post.Tags, Excerpt: post.Excerpt}, nil
	}

	active, err := s.prompts.GetActiveVersion(ctx, models.AgentTypeBlogMetadata)
	if err != nil {
		return nil, err
	}
	existingTags, recentPosts, err := s.blogContext(ctx)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := prompttmpl.Render(active.Prompt, map[string]string{
		prompttmpl.PlaceholderExistingTags:       existingTags,
		prompttmpl.PlaceholderExistingCategories: strings.Join(s.categories, ", "),
		prompttmpl.PlaceholderRecentPosts:        recentPosts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render blog metadata prompt: %w", err)
	}

	result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserInput:    content,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var metadata struct {
		Tags    []string `json:"tags"`
		Excerpt string   `json:"excerpt"`
	}
	if err := json.Unmarshal([]byte(result.Text), &metadata); err != nil {
		s.logger.Error("Failed to parse blog metadata response", zap.Error(err))
		return nil, fmt.Errorf("%w: unparsable blog metadata response", models.ErrAIGenerationFailed)
	}

	if err := s.posts.UpdateAnalysis(ctx, postID, metadata.Tags, metadata.Excerpt, contenthash.Hash(content)); err != nil {
		return nil, err
	}
	return &BlogAnalysis{Analyzed: true, Tags: metadata.Tags, Excerpt: metadata.Excerpt}, nil
}

// blogContext collects the distinct tags and recent titles substituted into
// the blog metadata prompt.
func (s *AssistantServiceImpl) blogContext(ctx context.Context) (string, string, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return "", "", err
	}

	tagSet := make(map[string]struct{})
	for _, p := range posts {
		for _, tag := range p.Tags {
			tagSet[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var recent strings.Builder
	for i, p := range posts {
		if i >= maxRecentPostsInCtx {
			break
		}
		fmt.Fprintf(&recent, "- %s\n", p.Title)
	}
	return strings.Join(tags, ", "), recent.String(), nil
}

func formatHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}
