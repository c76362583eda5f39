package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
)

// PromptService manages the append-only prompt version history. Deploy and
// rollback are the same operation: activate an existing version, history is
// never deleted.
type PromptService interface {
	SaveVersion(ctx context.Context, input SaveVersionInput) (*models.PromptVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error)
	ListVersions(ctx context.Context, agentType models.AgentType) ([]*models.PromptVersion, error)
	GetActiveVersion(ctx context.Context, agentType models.AgentType) (*models.PromptVersion, error)
	SetActive(ctx context.Context, agentType models.AgentType, id uuid.UUID) error
	SeedDefaults(ctx context.Context) error
}

// SaveVersionInput carries the immutable fields of a new version.
type SaveVersionInput struct {
	AgentType   models.AgentType
	Prompt      string
	Description string
	Author      string
	Activate    bool
}

type PromptServiceImpl struct {
	repo      interfaces.PromptVersionRepository
	publisher interfaces.PromptEventPublisher
	model     string
	logger    *zap.Logger
}

func NewPromptService(
	repo interfaces.PromptVersionRepository,
	publisher interfaces.PromptEventPublisher,
	model string,
	logger *zap.Logger,
) *PromptServiceImpl {
	return &PromptServiceImpl{
		repo:      repo,
		publisher: publisher,
		model:     model,
		logger:    logger.Named("PromptService"),
	}
}

func (s *PromptServiceImpl) SaveVersion(ctx context.Context, input SaveVersionInput) (*models.PromptVersion, error) {
	if !input.AgentType.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, input.AgentType)
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", models.ErrInvalidInput)
	}

	version := &models.PromptVersion{
		AgentType:   input.AgentType,
		Prompt:      input.Prompt,
		Description: input.Description,
		Author:      input.Author,
		TokenCount:  estimateTokens(s.model, input.Prompt),
	}
	if err := s.repo.Create(ctx, version, input.Activate); err != nil {
		return nil, fmt.Errorf("failed to save prompt version: %w", err)
	}

	eventType := interfaces.PromptEventTypeCreated
	if input.Activate {
		eventType = interfaces.PromptEventTypeActivated
	}
	s.publish(ctx, interfaces.PromptEvent{
		EventType: eventType,
		AgentType: version.AgentType,
		VersionID: version.ID,
	})

	s.logger.Info("Prompt version saved",
		zap.String("agentType", version.AgentType.String()),
		zap.String("id", version.ID.String()),
		zap.Int("tokenCount", version.TokenCount),
		zap.Bool("active", version.IsActive),
	)
	return version, nil
}

func (s *PromptServiceImpl) GetVersion(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PromptServiceImpl) ListVersions(ctx context.Context, agentType models.AgentType) ([]*models.PromptVersion, error) {
	if !agentType.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType)
	}
	return s.repo.ListByAgentType(ctx, agentType)
}

func (s *PromptServiceImpl) GetActiveVersion(ctx context.Context, agentType models.AgentType) (*models.PromptVersion, error) {
	if !agentType.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType)
	}
	return s.repo.GetActive(ctx, agentType)
}

// SetActive deploys or rolls back: the target version becomes the single
// active one for its agent type, every sibling is deactivated in the same
// transaction.
func (s *PromptServiceImpl) SetActive(ctx context.Context, agentType models.AgentType, id uuid.UUID) error {
	if !agentType.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownAgentType, agentType)
	}
	if err := s.repo.SetActive(ctx, agentType, id); err != nil {
		return err
	}

	s.publish(ctx, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeActivated,
		AgentType: agentType,
		VersionID: id,
	})
	s.logger.Info("Prompt version deployed",
		zap.String("agentType", agentType.String()),
		zap.String("id", id.String()),
	)
	return nil
}

// SeedDefaults inserts the built-in default prompt for every agent type
// whose partition is still empty, active. Idempotent: partitions that
// already have history are left alone.
func (s *PromptServiceImpl) SeedDefaults(ctx context.Context) error {
	for _, agentType := range models.KnownAgentTypes {
		count, err := s.repo.CountByAgentType(ctx, agentType)
		if err != nil {
			return fmt.Errorf("failed to check prompt history for %s: %w", agentType, err)
		}
		if count > 0 {
			continue
		}
		_, err = s.SaveVersion(ctx, SaveVersionInput{
			AgentType:   agentType,
			Prompt:      defaultPrompts[agentType],
			Description: "Built-in default prompt",
			Author:      "system",
			Activate:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed default prompt for %s: %w", agentType, err)
		}
		s.logger.Info("Seeded default prompt", zap.String("agentType", agentType.String()))
	}
	return nil
}

// publish sends the event best-effort. Version mutations must not fail
// because the broker is unavailable.
func (s *PromptServiceImpl) publish(ctx context.Context, event interfaces.PromptEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPromptEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish prompt event",
			zap.String("eventType", string(event.EventType)),
			zap.String("agentType", event.AgentType.String()),
			zap.Error(err),
		)
	}
}
