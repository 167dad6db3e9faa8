package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/motqot/internal/model"
)

// GenerationRepository handles persistence of provider call tracking.
type GenerationRepository interface {
	Create(ctx context.Context, g *model.Generation) error
	Count(ctx context.Context) (int64, error)
	CountBySuccess(ctx context.Context, success bool) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.Generation, error)
}

// sqliteGenerationRepository is unexported; only the interface is public.
type sqliteGenerationRepository struct {
	db *sqlx.DB
}

// NewGenerationRepository creates a new SQLite-backed GenerationRepository.
func NewGenerationRepository(db *sqlx.DB) GenerationRepository {
	return &sqliteGenerationRepository{db: db}
}

func (r *sqliteGenerationRepository) Create(ctx context.Context, g *model.Generation) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO generations (provider, model, language, success, status_code, error_message, duration_ms)
		VALUES (:provider, :model, :language, :success, :status_code, :error_message, :duration_ms)
	`, g)
	if err != nil {
		return fmt.Errorf("creating generation record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	g.ID = id
	return nil
}

func (r *sqliteGenerationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generations")
	return count, err
}

func (r *sqliteGenerationRepository) CountBySuccess(ctx context.Context, success bool) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generations WHERE success = ?", success)
	return count, err
}

func (r *sqliteGenerationRepository) ListRecent(ctx context.Context, limit int) ([]model.Generation, error) {
	var gens []model.Generation
	err := r.db.SelectContext(ctx, &gens,
		"SELECT * FROM generations ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	return gens, nil
}
