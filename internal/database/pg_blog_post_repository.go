package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
)

const (
	getBlogPostByIDQuery = `SELECT id, title, content, tags, excerpt, content_hash, created_at, updated_at FROM blog_posts WHERE id = $1`
	listBlogPostsQuery   = `SELECT id, title, content, tags, excerpt, content_hash, created_at, updated_at FROM blog_posts ORDER BY created_at DESC`
	createBlogPostQuery  = `INSERT INTO blog_posts (title, content) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	updateBlogPostQuery  = `UPDATE blog_posts SET title = $1, content = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`
	updateAnalysisQuery  = `UPDATE blog_posts SET tags = $1, excerpt = $2, content_hash = $3, updated_at = NOW() WHERE id = $4`
)

type PgBlogPostRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgBlogPostRepository creates a blog post repository backed by PostgreSQL.
func NewPgBlogPostRepository(db *pgxpool.Pool, logger *zap.Logger) *PgBlogPostRepository {
	return &PgBlogPostRepository{
		db:     db,
		logger: logger.Named("PgBlogPostRepo"),
	}
}

func (r *PgBlogPostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	err := r.db.QueryRow(ctx, createBlogPostQuery, post.Title, post.Content).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create blog post", zap.Error(err))
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return nil
}

func (r *PgBlogPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	err := pgxscan.Get(ctx, r.db, &post, getBlogPostByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPostNotFound
		}
		r.logger.Error("Failed to get blog post", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get blog post %s: %w", id, err)
	}
	return &post, nil
}

func (r *PgBlogPostRepository) List(ctx context.Context) ([]*models.BlogPost, error) {
	posts := make([]*models.BlogPost, 0)
	if err := pgxscan.Select(ctx, r.db, &posts, listBlogPostsQuery); err != nil {
		r.logger.Error("Failed to list blog posts", zap.Error(err))
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (r *PgBlogPostRepository) Update(ctx context.Context, post *models.BlogPost) error {
	err := r.db.QueryRow(ctx, updateBlogPostQuery, post.Title, post.Content, post.ID).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrPostNotFound
		}
		r.logger.Error("Failed to update blog post", zap.String("id", post.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update blog post %s: %w", post.ID, err)
	}
	return nil
}

func (r *PgBlogPostRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, tags []string, excerpt, contentHash string) error {
	tag, err := r.db.Exec(ctx, updateAnalysisQuery, tags, excerpt, contentHash, id)
	if err != nil {
		r.logger.Error("Failed to store blog post analysis", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to store analysis for blog post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPostNotFound
	}
	return nil
}
