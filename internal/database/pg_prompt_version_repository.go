package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"portfolio-server/internal/models"
)

const promptVersionFields = `id, agent_type, prompt, description, author, token_count, is_active, created_at`

// PgPromptVersionRepository stores prompt versions in PostgreSQL. The
// single-active-per-agent-type invariant is enforced both transactionally
// here and by a partial unique index on (agent_type) WHERE is_active.
type PgPromptVersionRepository struct {
	db *pgxpool.Pool
}

func NewPgPromptVersionRepository(db *pgxpool.Pool) *PgPromptVersionRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgPromptVersionRepository")
	}
	return &PgPromptVersionRepository{db: db}
}

func (r *PgPromptVersionRepository) Create(ctx context.Context, version *models.PromptVersion, activate bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if activate {
		if _, err := tx.Exec(ctx,
			`UPDATE prompt_versions SET is_active = FALSE WHERE agent_type = $1 AND is_active`,
			version.AgentType); err != nil {
			log.Error().Err(err).Str("agentType", version.AgentType.String()).Msg("Failed to deactivate sibling versions")
			return fmt.Errorf("failed to deactivate sibling versions: %w", err)
		}
	}

	query := `INSERT INTO prompt_versions (agent_type, prompt, description, author, token_count, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err = tx.QueryRow(ctx, query,
		version.AgentType, version.Prompt, version.Description, version.Author, version.TokenCount, activate,
	).Scan(&version.ID, &version.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("agentType", version.AgentType.String()).Msg("Failed to insert prompt version")
		return fmt.Errorf("failed to insert prompt version: %w", err)
	}
	version.IsActive = activate

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit prompt version insert: %w", err)
	}
	log.Info().
		Str("agentType", version.AgentType.String()).
		Str("id", version.ID.String()).
		Bool("active", activate).
		Msg("Prompt version created")
	return nil
}

func (r *PgPromptVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PromptVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompt_versions WHERE id = $1`, promptVersionFields)
	version, err := scanPromptVersionRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}
		log.Error().Err(err).Str("id", id.String()).Msg("Failed to get prompt version by ID")
		return nil, fmt.Errorf("failed to get prompt version by ID %s: %w", id, err)
	}
	return version, nil
}

func (r *PgPromptVersionRepository) ListByAgentType(ctx context.Context, agentType models.AgentType) ([]*models.PromptVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompt_versions WHERE agent_type = $1 ORDER BY created_at DESC`, promptVersionFields)
	rows, err := r.db.Query(ctx, query, agentType)
	if err != nil {
		log.Error().Err(err).Str("agentType", agentType.String()).Msg("Failed to list prompt versions")
		return nil, fmt.Errorf("failed to list prompt versions: %w", err)
	}
	defer rows.Close()

	versions := make([]*models.PromptVersion, 0)
	for rows.Next() {
		version, err := scanPromptVersionRow(rows)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan prompt version row")
			return nil, fmt.Errorf("failed to scan prompt version row: %w", err)
		}
		versions = append(versions, version)
	}
	if err = rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error during rows iteration for list prompt versions")
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return versions, nil
}

func (r *PgPromptVersionRepository) GetActive(ctx context.Context, agentType models.AgentType) (*models.PromptVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompt_versions WHERE agent_type = $1 AND is_active`, promptVersionFields)
	version, err := scanPromptVersionRow(r.db.QueryRow(ctx, query, agentType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNoActiveVersion
		}
		log.Error().Err(err).Str("agentType", agentType.String()).Msg("Failed to get active prompt version")
		return nil, fmt.Errorf("failed to get active prompt version: %w", err)
	}
	return version, nil
}

// SetActive flips the active flag to the target version. Deactivation and
// activation run in one transaction so a concurrent deploy can never leave
// zero or two active versions behind.
func (r *PgPromptVersionRepository) SetActive(ctx context.Context, agentType models.AgentType, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE prompt_versions SET is_active = FALSE WHERE agent_type = $1 AND is_active`,
		agentType); err != nil {
		log.Error().Err(err).Str("agentType", agentType.String()).Msg("Failed to deactivate sibling versions")
		return fmt.Errorf("failed to deactivate sibling versions: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE prompt_versions SET is_active = TRUE WHERE id = $1 AND agent_type = $2`,
		id, agentType)
	if err != nil {
		log.Error().Err(err).Str("id", id.String()).Str("agentType", agentType.String()).Msg("Failed to activate prompt version")
		return fmt.Errorf("failed to activate prompt version %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVersionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit prompt version activation: %w", err)
	}
	log.Info().Str("agentType", agentType.String()).Str("id", id.String()).Msg("Prompt version activated")
	return nil
}

func (r *PgPromptVersionRepository) CountByAgentType(ctx context.Context, agentType models.AgentType) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM prompt_versions WHERE agent_type = $1`, agentType).Scan(&count)
	if err != nil {
		log.Error().Err(err).Str("agentType", agentType.String()).Msg("Failed to count prompt versions")
		return 0, fmt.Errorf("failed to count prompt versions: %w", err)
	}
	return count, nil
}

func scanPromptVersionRow(row pgx.Row) (*models.PromptVersion, error) {
	var version models.PromptVersion
	err := row.Scan(
		&version.ID, &version.AgentType, &version.Prompt, &version.Description,
		&version.Author, &version.TokenCount, &version.IsActive, &version.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &version, nil
}
