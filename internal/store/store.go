package store

import (
	"context"
	"errors"

	"github.com/nulzo/epoch/internal/store/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Repository is the main contract for the data layer.
type Repository interface {
	Generations() GenerationRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type GenerationRepository interface {
	// Log stores a finished generation, successful or not.
	Log(ctx context.Context, g *model.Generation) error
	// GetByID returns a single generation or ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Generation, error)
	// Recent returns the newest generations first.
	Recent(ctx context.Context, limit int) ([]model.Generation, error)
	// Stats aggregates generations per provider and status.
	Stats(ctx context.Context) ([]model.GenerationStats, error)
}
