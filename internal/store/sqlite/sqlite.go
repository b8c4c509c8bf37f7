package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/epoch/internal/store"
	"github.com/nulzo/epoch/internal/store/model"
)

// DB is satisfied by *sqlx.DB and *sqlx.Tx.
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type SqliteRepository struct {
	db       *sqlx.DB
	executor DB
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{db: db, executor: db}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{db: r.db, executor: tx}

	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Generations() store.GenerationRepository {
	return &generationRepo{db: r.executor}
}

type generationRepo struct {
	db DB
}

func (r *generationRepo) Log(ctx context.Context, g *model.Generation) error {
	query := `
	INSERT INTO generations (
		id, provider, model, has_system, has_schema, mime_type, prompt_chars,
		status, error_kind, error_message, http_status, latency_ms, output, created_at
	) VALUES (
		:id, :provider, :model, :has_system, :has_schema, :mime_type, :prompt_chars,
		:status, :error_kind, :error_message, :http_status, :latency_ms, :output, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, g)
	return err
}

func (r *generationRepo) GetByID(ctx context.Context, id string) (*model.Generation, error) {
	var g model.Generation
	err := r.db.GetContext(ctx, &g, `SELECT * FROM generations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *generationRepo) Recent(ctx context.Context, limit int) ([]model.Generation, error) {
	gens := []model.Generation{}
	err := r.db.SelectContext(ctx, &gens,
		`SELECT * FROM generations ORDER BY created_at DESC, id LIMIT ?`, limit)
	return gens, err
}

func (r *generationRepo) Stats(ctx context.Context) ([]model.GenerationStats, error) {
	stats := []model.GenerationStats{}
	query := `
	SELECT provider, status, COUNT(*) AS count, AVG(latency_ms) AS avg_latency_ms
	FROM generations
	GROUP BY provider, status
	ORDER BY provider, status`
	err := r.db.SelectContext(ctx, &stats, query)
	return stats, err
}
