package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
)

// MaxTestCases bounds one test-prompt batch.
const MaxTestCases = 20

// maxResumeUpdateChars bounds the free-text update request.
const maxResumeUpdateChars = 1000

const refineSystemPrompt = `You improve system prompts for a portfolio website's AI features.
Given a current prompt and a refinement request, produce an improved prompt.
Preserve every placeholder token (such as {resumeContext}) exactly as written.
Respond with a single JSON object:
{"proposedPrompt": "...", "diffSummary": "...", "changes": ["..."]}`

const resumeUpdateSystemPrompt = `You propose edits to the resume of a portfolio website owner.
Given the current resume and an update request, propose precise changes.
Never invent facts the request does not state. Respond with a single JSON object:
{"proposedChanges": [{"section": "...", "current": "...", "proposed": "...", "reason": "..."}], "summary": "..."}`

// RefineResult is the AI-assisted rewrite of a prompt, proposed only; the
// admin decides whether to save it as a new version.
type RefineResult struct {
	ProposedPrompt     string   `json:"proposedPrompt"`
	DiffSummary        string   `json:"diffSummary"`
	TokenCountOriginal int      `json:"tokenCountOriginal"`
	TokenCountProposed int      `json:"tokenCountProposed"`
	Changes            []string `json:"changes"`
}

// PromptTestCase is one input in a test-prompt batch. ExpectedContains is
// optional; when set, the case passes only if the output contains it.
type PromptTestCase struct {
	Name             string `json:"name"`
	Input            string `json:"input"`
	ExpectedContains string `json:"expectedContains,omitempty"`
}

// PromptTestResult is the outcome of one test case.
type PromptTestResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Output    string `json:"output,omitempty"`
	Tokens    int    `json:"tokens"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// TestReport aggregates a test-prompt batch.
type TestReport struct {
	Results []PromptTestResult `json:"results"`
	Summary TestSummary        `json:"summary"`
}

type TestSummary struct {
	TotalTests   int   `json:"totalTests"`
	Passed       int   `json:"passed"`
	Failed       int   `json:"failed"`
	AvgTokens    int   `json:"avgTokens"`
	AvgLatencyMs int64 `json:"avgLatencyMs"`
}

// ResumeChange is one proposed edit; nothing is committed automatically.
type ResumeChange struct {
	Section  string `json:"section"`
	Current  string `json:"current"`
	Proposed string `json:"proposed"`
	Reason   string `json:"reason"`
}

type ResumeUpdateProposal struct {
	ProposedChanges []ResumeChange `json:"proposedChanges"`
	Summary         string         `json:"summary"`
}

// WorkbenchService backs the admin agent workbench: AI-assisted prompt
// refinement, batch prompt testing and resume update proposals.
type WorkbenchService interface {
	RefinePrompt(ctx context.Context, agentType models.AgentType, currentPrompt, refinementRequest string) (*RefineResult, error)
	TestPrompt(ctx context.Context, promptText string, cases []PromptTestCase) (*TestReport, error)
	ProposeResumeUpdate(ctx context.Context, updateRequest string) (*ResumeUpdateProposal, error)
}

type WorkbenchServiceImpl struct {
	prompts PromptService
	ai      interfaces.AIClient
	model   string
	resume  string
	logger  *zap.Logger
}

func NewWorkbenchService(prompts PromptService, ai interfaces.AIClient, model, resume string, logger *zap.Logger) *WorkbenchServiceImpl {
	return &WorkbenchServiceImpl{
		prompts: prompts,
		ai:      ai,
		model:   model,
		resume:  resume,
		logger:  logger.Named("WorkbenchService"),
	}
}

// RefinePrompt asks the hosted model to rewrite a prompt according to the
// refinement request. When currentPrompt is empty the active version of the
// agent type is refined instead.
func (s *WorkbenchServiceImpl) RefinePrompt(ctx context.Context, agentType models.AgentType, currentPrompt, refinementRequest string) (*RefineResult, error) {
	if strings.TrimSpace(refinementRequest) == "" {
		return nil, fmt.Errorf("%w: refinement request must not be empty", models.ErrInvalidInput)
	}
	if currentPrompt == "" {
		active, err := s.prompts.GetActiveVersion(ctx, agentType)
		if err != nil {
			return nil, err
		}
		currentPrompt = active.Prompt
	}

	userInput := fmt.Sprintf("Current prompt:\n---\n%s\n---\n\nRefinement request: %s", currentPrompt, refinementRequest)
	result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
		SystemPrompt: refineSystemPrompt,
		UserInput:    userInput,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var refined RefineResult
	if err := json.Unmarshal([]byte(result.Text), &refined); err != nil {
		s.logger.Error("Failed to parse refine response", zap.Error(err))
		return nil, fmt.Errorf("%w: unparsable refine response", models.ErrAIGenerationFailed)
	}
	if strings.TrimSpace(refined.ProposedPrompt) == "" {
		return nil, fmt.Errorf("%w: refine response carried no prompt", models.ErrAIGenerationFailed)
	}
	refined.TokenCountOriginal = estimateTokens(s.model, currentPrompt)
	refined.TokenCountProposed = estimateTokens(s.model, refined.ProposedPrompt)
	return &refined, nil
}

// TestPrompt runs every case against promptText sequentially and aggregates
// pass/fail, token and latency figures. A case with a hosted-API error
// counts as failed; the batch itself still completes.
func (s *WorkbenchServiceImpl) TestPrompt(ctx context.Context, promptText string, cases []PromptTestCase) (*TestReport, error) {
	if strings.TrimSpace(promptText) == "" {
		return nil, fmt.Errorf("%w: prompt text must not be empty", models.ErrInvalidInput)
	}
	if len(cases) == 0 || len(cases) > MaxTestCases {
		return nil, fmt.Errorf("%w: between 1 and %d test cases required", models.ErrInvalidInput, MaxTestCases)
	}

	report := &TestReport{Results: make([]PromptTestResult, 0, len(cases))}
	var totalTokens, passed int
	var totalLatency int64

	for _, tc := range cases {
		start := time.Now()
		result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
			SystemPrompt: promptText,
			UserInput:    tc.Input,
		})
		latency := time.Since(start).Milliseconds()
		totalLatency += latency

		caseResult := PromptTestResult{Name: tc.Name, LatencyMs: latency}
		if err != nil {
			caseResult.Error = err.Error()
		} else {
			caseResult.Output = result.Text
			caseResult.Tokens = result.Usage.TotalTokens
			totalTokens += result.Usage.TotalTokens
			caseResult.Passed = tc.ExpectedContains == "" ||
				strings.Contains(strings.ToLower(result.Text), strings.ToLower(tc.ExpectedContains))
		}
		if caseResult.Passed {
			passed++
		}
		report.Results = append(report.Results, caseResult)
	}

	total := len(cases)
	report.Summary = TestSummary{
		TotalTests:   total,
		Passed:       passed,
		Failed:       total - passed,
		AvgTokens:    totalTokens / total,
		AvgLatencyMs: totalLatency / int64(total),
	}
	return report, nil
}

// ProposeResumeUpdate returns a structured diff against the current resume.
// The proposal is never applied automatically.
func (s *WorkbenchServiceImpl) ProposeResumeUpdate(ctx context.Context, updateRequest string) (*ResumeUpdateProposal, error) {
	trimmed := strings.TrimSpace(updateRequest)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: update request must not be empty", models.ErrInvalidInput)
	}
	if len(trimmed) > maxResumeUpdateChars {
		return nil, fmt.Errorf("%w: update request exceeds %d characters", models.ErrInvalidInput, maxResumeUpdateChars)
	}

	userInput := fmt.Sprintf("Current resume:\n---\n%s\n---\n\nUpdate request: %s", s.resume, trimmed)
	result, err := s.ai.Generate(ctx, interfaces.GenerationRequest{
		SystemPrompt: resumeUpdateSystemPrompt,
		UserInput:    userInput,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var proposal ResumeUpdateProposal
	if err := json.Unmarshal([]byte(result.Text), &proposal); err != nil {
		s.logger.Error("Failed to parse resume update response", zap.Error(err))
		return nil, fmt.Errorf("%w: unparsable resume update response", models.ErrAIGenerationFailed)
	}
	return &proposal, nil
}
