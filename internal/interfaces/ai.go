package interfaces

import "context"

// TokenUsage reports token accounting for one hosted-model call. Values come
// from the API usage block when present, otherwise from a local estimate.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// GenerationRequest is a single call to the hosted text-generation API.
type GenerationRequest struct {
	SystemPrompt string
	UserInput    string
	// JSONMode asks the model for a single JSON object response.
	JSONMode bool
	// MaxTokens caps the completion length; 0 means the provider default.
	MaxTokens int
}

// GenerationResult carries the raw model output plus usage accounting.
type GenerationResult struct {
	Text  string
	Usage TokenUsage
}

// AIClient is the hosted text-generation API consumed by chat, assessment
// and workbench features. Implementations do not retry; a failed call
// surfaces immediately.
type AIClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}
