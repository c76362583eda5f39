package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentType partitions the prompt version space. Each AI feature of the
// site owns exactly one partition.
type AgentType string

const (
	AgentTypeChat          AgentType = "chat"
	AgentTypeFitAssessment AgentType = "fit-assessment"
	AgentTypeBlogMetadata  AgentType = "blog-metadata"
)

// KnownAgentTypes lists every valid partition, in display order.
var KnownAgentTypes = []AgentType{
	AgentTypeChat,
	AgentTypeFitAssessment,
	AgentTypeBlogMetadata,
}

// Valid reports whether t is one of the known agent types.
func (t AgentType) Valid() bool {
	switch t {
	case AgentTypeChat, AgentTypeFitAssessment, AgentTypeBlogMetadata:
		return true
	}
	return false
}

func (t AgentType) String() string { return string(t) }

// PromptVersion is one immutable entry in the prompt history of an agent
// type. Only IsActive ever changes after creation; at most one version per
// agent type may be active at a time.
type PromptVersion struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AgentType   AgentType `db:"agent_type" json:"agentType"`
	Prompt      string    `db:"prompt" json:"prompt"`
	Description string    `db:"description" json:"description"`
	Author      string    `db:"author" json:"author"`
	TokenCount  int       `db:"token_count" json:"tokenCount"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
