package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-server/internal/interfaces"
	"portfolio-server/internal/models"
)

// fakeVersionRepo mimics the transactional semantics of the PostgreSQL
// repository: deactivate-all plus activate-one happen under one lock.
type fakeVersionRepo struct {
	mu       sync.Mutex
	versions []*models.PromptVersion
	clock    time.Time
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{clock: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeVersionRepo) Create(_ context.Context, version *models.PromptVersion, activate bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if activate {
		for _, v := range f.versions {
			if v.AgentType == version.AgentType {
				v.IsActive = false
			}
		}
	}
	f.clock = f.clock.Add(time.Second)
	version.ID = uuid.New()
	version.CreatedAt = f.clock
	version.IsActive = activate
	stored := *version
	f.versions = append(f.versions, &stored)
	return nil
}

func (f *fakeVersionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PromptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, models.ErrVersionNotFound
}

func (f *fakeVersionRepo) ListByAgentType(_ context.Context, agentType models.AgentType) ([]*models.PromptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.PromptVersion, 0)
	for _, v := range f.versions {
		if v.AgentType == agentType {
			copied := *v
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeVersionRepo) GetActive(_ context.Context, agentType models.AgentType) (*models.PromptVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.AgentType == agentType && v.IsActive {
			copied := *v
			return &copied, nil
		}
	}
	return nil, models.ErrNoActiveVersion
}

func (f *fakeVersionRepo) SetActive(_ context.Context, agentType models.AgentType, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.PromptVersion
	for _, v := range f.versions {
		if v.ID == id && v.AgentType == agentType {
			target = v
			break
		}
	}
	if target == nil {
		return models.ErrVersionNotFound
	}
	for _, v := range f.versions {
		if v.AgentType == agentType {
			v.IsActive = false
		}
	}
	target.IsActive = true
	return nil
}

func (f *fakeVersionRepo) CountByAgentType(_ context.Context, agentType models.AgentType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, v := range f.versions {
		if v.AgentType == agentType {
			count++
		}
	}
	return count, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []interfaces.PromptEvent
}

func (p *fakePublisher) PublishPromptEvent(_ context.Context, event interfaces.PromptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestPromptService(t *testing.T) (*PromptServiceImpl, *fakeVersionRepo, *fakePublisher) {
	t.Helper()
	repo := newFakeVersionRepo()
	publisher := &fakePublisher{}
	return NewPromptService(repo, publisher, "test-model", zap.NewNop()), repo, publisher
}

func activeCount(t *testing.T, svc PromptService, agentType models.AgentType) int {
	t.Helper()
	versions, err := svc.ListVersions(context.Background(), agentType)
	require.NoError(t, err)
	count := 0
	for _, v := range versions {
		if v.IsActive {
			count++
		}
	}
	return count
}

func TestSaveVersionRejectsUnknownAgentType(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	_, err := svc.SaveVersion(context.Background(), SaveVersionInput{
		AgentType: "definitely-not-an-agent",
		Prompt:    "hello",
	})
	require.ErrorIs(t, err, models.ErrUnknownAgentType)
}

func TestSaveVersionRejectsEmptyPrompt(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	_, err := svc.SaveVersion(context.Background(), SaveVersionInput{
		AgentType: models.AgentTypeChat,
		Prompt:    "   ",
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSingleActiveInvariant(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	ctx := context.Background()

	// Nothing activated yet.
	_, err := svc.GetActiveVersion(ctx, models.AgentTypeChat)
	require.ErrorIs(t, err, models.ErrNoActiveVersion)

	v1, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "v1", Author: "admin", Activate: true,
	})
	require.NoError(t, err)

	v2, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "v2", Author: "admin", Activate: true,
	})
	require.NoError(t, err)

	// Inactive save must not disturb the active flag.
	_, err = svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "draft", Author: "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, activeCount(t, svc, models.AgentTypeChat))

	require.NoError(t, svc.SetActive(ctx, models.AgentTypeChat, v1.ID))
	assert.Equal(t, 1, activeCount(t, svc, models.AgentTypeChat))

	// Another partition keeps its own count.
	assert.Equal(t, 0, activeCount(t, svc, models.AgentTypeBlogMetadata))
	_ = v2
}

func TestRollbackRestoresOldVersionUnchanged(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	ctx := context.Background()

	v1, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType:   models.AgentTypeChat,
		Prompt:      "original prompt",
		Description: "first cut",
		Author:      "admin",
		Activate:    true,
	})
	require.NoError(t, err)

	v2, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "second prompt", Author: "admin", Activate: true,
	})
	require.NoError(t, err)

	active, err := svc.GetActiveVersion(ctx, models.AgentTypeChat)
	require.NoError(t, err)
	require.Equal(t, v2.ID, active.ID)

	// Rollback: reactivate v1.
	require.NoError(t, svc.SetActive(ctx, models.AgentTypeChat, v1.ID))

	active, err = svc.GetActiveVersion(ctx, models.AgentTypeChat)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, active.ID)
	assert.Equal(t, "original prompt", active.Prompt)
	assert.Equal(t, "first cut", active.Description)
	assert.Equal(t, "admin", active.Author)
	assert.Equal(t, v1.TokenCount, active.TokenCount)

	// v2 stays in history, deactivated but otherwise untouched.
	got2, err := svc.GetVersion(ctx, v2.ID)
	require.NoError(t, err)
	assert.False(t, got2.IsActive)
	assert.Equal(t, "second prompt", got2.Prompt)

	// And forward again.
	require.NoError(t, svc.SetActive(ctx, models.AgentTypeChat, v2.ID))
	active, err = svc.GetActiveVersion(ctx, models.AgentTypeChat)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID)
}

func TestSetActiveUnknownVersion(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	err := svc.SetActive(context.Background(), models.AgentTypeChat, uuid.New())
	require.ErrorIs(t, err, models.ErrVersionNotFound)
}

func TestSetActiveWrongPartition(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	ctx := context.Background()

	v1, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "chat prompt", Activate: true,
	})
	require.NoError(t, err)

	// A chat version id is not a valid target in another partition.
	err = svc.SetActive(ctx, models.AgentTypeBlogMetadata, v1.ID)
	require.ErrorIs(t, err, models.ErrVersionNotFound)
}

func TestListVersionsNewestFirst(t *testing.T) {
	svc, _, _ := newTestPromptService(t)
	ctx := context.Background()

	for _, prompt := range []string{"one", "two", "three"} {
		_, err := svc.SaveVersion(ctx, SaveVersionInput{
			AgentType: models.AgentTypeChat, Prompt: prompt, Activate: true,
		})
		require.NoError(t, err)
	}

	versions, err := svc.ListVersions(ctx, models.AgentTypeChat)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "three", versions[0].Prompt)
	assert.Equal(t, "one", versions[2].Prompt)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc, _, publisher := newTestPromptService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaults(ctx))
	for _, agentType := range models.KnownAgentTypes {
		active, err := svc.GetActiveVersion(ctx, agentType)
		require.NoError(t, err, "seed must activate a default for %s", agentType)
		assert.Equal(t, "system", active.Author)
	}

	firstCount := len(publisher.events)
	require.NoError(t, svc.SeedDefaults(ctx))
	for _, agentType := range models.KnownAgentTypes {
		versions, err := svc.ListVersions(ctx, agentType)
		require.NoError(t, err)
		assert.Len(t, versions, 1, "re-seed must not add versions for %s", agentType)
	}
	assert.Equal(t, firstCount, len(publisher.events), "re-seed must not publish events")
}

func TestActivationPublishesEvent(t *testing.T) {
	svc, _, publisher := newTestPromptService(t)
	ctx := context.Background()

	v1, err := svc.SaveVersion(ctx, SaveVersionInput{
		AgentType: models.AgentTypeChat, Prompt: "v1", Activate: true,
	})
	require.NoError(t, err)

	require.NotEmpty(t, publisher.events)
	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, interfaces.PromptEventTypeActivated, last.EventType)
	assert.Equal(t, v1.ID, last.VersionID)
}
