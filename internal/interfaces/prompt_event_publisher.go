package interfaces

import (
	"context"

	"github.com/google/uuid"

	"portfolio-server/internal/models"
)

// PromptEventType represents the type of prompt event.
type PromptEventType string

const (
	PromptEventTypeCreated   PromptEventType = "created"
	PromptEventTypeActivated PromptEventType = "activated"
)

// PromptEvent notifies downstream consumers that the prompt history of an
// agent type changed, so cached active prompts can be dropped.
type PromptEvent struct {
	EventType PromptEventType  `json:"eventType"`
	AgentType models.AgentType `json:"agentType"`
	VersionID uuid.UUID        `json:"versionId"`
}

// PromptEventPublisher defines the interface for publishing prompt change events.
type PromptEventPublisher interface {
	PublishPromptEvent(ctx context.Context, event PromptEvent) error
}
