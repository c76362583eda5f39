package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
)

type fakeAIClient struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (f *fakeAIClient) Generate(_ context.Context, _ interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.GenerationResult{
		Text:  f.response,
		Usage: interfaces.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeAIClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBlogRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*models.BlogPost
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{posts: make(map[uuid.UUID]*models.BlogPost)}
}

func (f *fakeBlogRepo) Create(_ context.Context, post *models.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = uuid.New()
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakeBlogRepo) GetByID(_ context.Context, id uuid.UUID) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, models.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (f *fakeBlogRepo) List(_ context.Context) ([]*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.BlogPost, 0, len(f.posts))
	for _, p := range f.posts {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeBlogRepo) Update(_ context.Context, post *models.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.posts[post.ID]
	if !ok {
		return models.ErrPostNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	return nil
}

func (f *fakeBlogRepo) UpdateAnalysis(_ context.Context, id uuid.UUID, tags []string, excerpt, contentHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.posts[id]
	if !ok {
		return models.ErrPostNotFound
	}
	stored.Tags = tags
	stored.Excerpt = excerpt
	stored.ContentHash = &contentHash
	return nil
}

func newTestAssistant(t *testing.T, ai *fakeAIClient) (*AssistantServiceImpl, *fakeBlogRepo, PromptService) {
	t.Helper()
	prompts, _, _ := newTestPromptService(t)
	require.NoError(t, prompts.SeedDefaults(context.Background()))
	posts := newFakeBlogRepo()
	svc := NewAssistantService(prompts, posts, ai, "Resume: Go engineer.", []string{"engineering", "notes"}, zap.NewNop())
	return svc, posts, prompts
}

func TestChatRejectsOversizedMessage(t *testing.T) {
	svc, _, _ := newTestAssistant(t, &fakeAIClient{response: "hi"})
	_, err := svc.Chat(context.Background(), strings.Repeat("a", MaxChatMessageChars+1), nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestChatRejectsRunawayHistory(t *testing.T) {
	svc, _, _ := newTestAssistant(t, &fakeAIClient{response: "hi"})
	history := make([]ChatMessage, MaxChatHistoryEntries+1)
	for i := range history {
		history[i] = ChatMessage{Role: "user", Content: "x"}
	}
	_, err := svc.Chat(context.Background(), "hello", history)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestChatUsesActivePrompt(t *testing.T) {
	ai := &fakeAIClient{response: "I work mostly in Go."}
	svc, _, _ := newTestAssistant(t, ai)

	reply, err := svc.Chat(context.Background(), "What languages do you use?", []ChatMessage{
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I work mostly in Go.", reply.Reply)
	assert.Equal(t, 15, reply.Usage.TotalTokens)
	assert.Equal(t, 1, ai.callCount())
}

func TestAssessFitParsesStructuredResult(t *testing.T) {
	ai := &fakeAIClient{response: `{"score": 72, "strengths": ["Go", "Postgres"], "gaps": ["Kubernetes"], "summary": "Decent fit."}`}
	svc, _, _ := newTestAssistant(t, ai)

	assessment, err := svc.AssessFit(context.Background(), "Backend engineer, Go + Postgres.")
	require.NoError(t, err)
	assert.Equal(t, 72, assessment.Score)
	assert.Equal(t, []string{"Go", "Postgres"}, assessment.Strengths)
	assert.Equal(t, []string{"Kubernetes"}, assessment.Gaps)
}

func TestAnalyzeBlogPostGatedByFingerprint(t *testing.T) {
	ai := &fakeAIClient{response: `{"tags": ["go", "databases"], "excerpt": "A post about pgx."}`}
	svc, posts, _ := newTestAssistant(t, ai)
	ctx := context.Background()

	post := &models.BlogPost{Title: "Using pgx", Content: "Some body text."}
	require.NoError(t, posts.Create(ctx, post))

	// First analysis: no fingerprint yet, must call the model.
	analysis, err := svc.AnalyzeBlogPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, analysis.Analyzed)
	assert.False(t, analysis.Skipped)
	assert.Equal(t, []string{"go", "databases"}, analysis.Tags)
	firstCalls := ai.callCount()

	// Unchanged content: skipped, no extra model call, stored metadata returned.
	analysis, err = svc.AnalyzeBlogPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, analysis.Skipped)
	assert.False(t, analysis.Analyzed)
	assert.Equal(t, []string{"go", "databases"}, analysis.Tags)
	assert.Equal(t, "A post about pgx.", analysis.Excerpt)
	assert.Equal(t, firstCalls, ai.callCount(), "unchanged content must not trigger a hosted-model call")

	// Edit the body: analysis runs again.
	post.Content = "Some body text, now revised."
	require.NoError(t, posts.Update(ctx, post))
	analysis, err = svc.AnalyzeBlogPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, analysis.Analyzed)
	assert.Greater(t, ai.callCount(), firstCalls)
}

func TestAnalyzeBlogPostUnknownID(t *testing.T) {
	svc, _, _ := newTestAssistant(t, &fakeAIClient{response: "{}"})
	_, err := svc.AnalyzeBlogPost(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrPostNotFound)
}
