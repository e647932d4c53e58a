package port

import (
	"context"

	"github.com/google/uuid"

	"plinvoice/internal/domain"
)

// ExtractionRepository persists extraction runs.
type ExtractionRepository interface {
	Create(ctx context.Context, e *domain.Extraction) error
	Update(ctx context.Context, e *domain.Extraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error)
	List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
