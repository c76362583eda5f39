package interfaces

import (
	"context"

	"github.com/google/uuid"

	"portfolio-server/internal/models"
)

// PromptVersionRepository defines storage operations over the append-only
// prompt version history.
type PromptVersionRepository interface {
	// Create inserts a new version. When activate is true the insert and
	// the deactivation of every sibling in the same agent type partition
	// happen in a single transaction.
	Create(ctx context.Context, version *models.PromptVersion, activate bool) error

	// GetByID retrieves a version by id, models.ErrVersionNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error)

	// ListByAgentType returns every version of the partition, newest first.
	ListByAgentType(ctx context.Context, agentType models.AgentType) ([]*models.PromptVersion, error)

	// GetActive returns the single active version of the partition, or
	// models.ErrNoActiveVersion if nothing has ever been activated.
	GetActive(ctx context.Context, agentType models.AgentType) (*models.PromptVersion, error)

	// SetActive transactionally deactivates every version of the partition
	// and activates the target id. Returns models.ErrVersionNotFound when
	// the id does not belong to the partition.
	SetActive(ctx context.Context, agentType models.AgentType, id uuid.UUID) error

	// CountByAgentType reports how many versions the partition holds.
	CountByAgentType(ctx context.Context, agentType models.AgentType) (int, error)
}

// BlogPostRepository defines storage operations for blog posts.
type BlogPostRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	List(ctx context.Context) ([]*models.BlogPost, error)
	Update(ctx context.Context, post *models.BlogPost) error

	// UpdateAnalysis stores AI-derived metadata together with the content
	// fingerprint it was computed from.
	UpdateAnalysis(ctx context.Context, id uuid.UUID, tags []string, excerpt, contentHash string) error
}
