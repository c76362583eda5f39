package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
)

func newTestWorkbench(t *testing.T, ai *fakeAIClient) (*WorkbenchServiceImpl, PromptService) {
	t.Helper()
	prompts, _, _ := newTestPromptService(t)
	require.NoError(t, prompts.SeedDefaults(context.Background()))
	svc := NewWorkbenchService(prompts, ai, "test-model", "Resume: Go engineer.", zap.NewNop())
	return svc, prompts
}

func TestRefinePromptReturnsProposal(t *testing.T) {
	ai := &fakeAIClient{response: `{"proposedPrompt": "Be concise. {resumeContext}", "diffSummary": "Shortened the intro.", "changes": ["dropped filler"]}`}
	svc, _ := newTestWorkbench(t, ai)

	result, err := svc.RefinePrompt(context.Background(), models.AgentTypeChat, "Long old prompt {resumeContext}", "make it concise")
	require.NoError(t, err)
	assert.Equal(t, "Be concise. {resumeContext}", result.ProposedPrompt)
	assert.Equal(t, "Shortened the intro.", result.DiffSummary)
	assert.Equal(t, []string{"dropped filler"}, result.Changes)
	assert.Greater(t, result.TokenCountOriginal, 0)
	assert.Greater(t, result.TokenCountProposed, 0)
}

func TestRefinePromptFallsBackToActiveVersion(t *testing.T) {
	ai := &fakeAIClient{response: `{"proposedPrompt": "improved", "diffSummary": "s", "changes": []}`}
	svc, _ := newTestWorkbench(t, ai)

	// No currentPrompt supplied: the active chat version is refined.
	result, err := svc.RefinePrompt(context.Background(), models.AgentTypeChat, "", "tighten wording")
	require.NoError(t, err)
	assert.Equal(t, "improved", result.ProposedPrompt)
}

func TestRefinePromptRequiresRequest(t *testing.T) {
	svc, _ := newTestWorkbench(t, &fakeAIClient{response: "{}"})
	_, err := svc.RefinePrompt(context.Background(), models.AgentTypeChat, "prompt", "  ")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestTestPromptAggregatesSummary(t *testing.T) {
	ai := &fakeAIClient{response: "The answer mentions Go and Postgres."}
	svc, _ := newTestWorkbench(t, ai)

	report, err := svc.TestPrompt(context.Background(), "You answer tech questions.", []PromptTestCase{
		{Name: "mentions go", Input: "what stack?", ExpectedContains: "go"},
		{Name: "mentions rust", Input: "what stack?", ExpectedContains: "rust"},
		{Name: "free-form", Input: "anything"},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Passed)
	assert.False(t, report.Results[1].Passed)
	assert.True(t, report.Results[2].Passed, "cases without expectations pass when the call succeeds")

	assert.Equal(t, 3, report.Summary.TotalTests)
	assert.Equal(t, 2, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 15, report.Summary.AvgTokens)
}

func TestTestPromptBounds(t *testing.T) {
	svc, _ := newTestWorkbench(t, &fakeAIClient{response: "ok"})

	_, err := svc.TestPrompt(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	tooMany := make([]PromptTestCase, MaxTestCases+1)
	for i := range tooMany {
		tooMany[i] = PromptTestCase{Name: "c", Input: "x"}
	}
	_, err = svc.TestPrompt(context.Background(), "prompt", tooMany)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestProposeResumeUpdate(t *testing.T) {
	ai := &fakeAIClient{response: `{"proposedChanges": [{"section": "Experience", "current": "2 years", "proposed": "3 years", "reason": "anniversary passed"}], "summary": "One change."}`}
	svc, _ := newTestWorkbench(t, ai)

	proposal, err := svc.ProposeResumeUpdate(context.Background(), "I now have 3 years of Go experience")
	require.NoError(t, err)
	require.Len(t, proposal.ProposedChanges, 1)
	assert.Equal(t, "Experience", proposal.ProposedChanges[0].Section)
	assert.Equal(t, "One change.", proposal.Summary)
}

func TestProposeResumeUpdateTooLong(t *testing.T) {
	svc, _ := newTestWorkbench(t, &fakeAIClient{response: "{}"})
	_, err := svc.ProposeResumeUpdate(context.Background(), strings.Repeat("a", maxResumeUpdateChars+1))
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
