package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"plinvoice/internal/domain"
	"plinvoice/internal/port"
)

type extractionRepo struct {
	db *sqlx.DB
}

// NewExtractionRepo creates a new PostgreSQL-backed ExtractionRepository.
func NewExtractionRepo(db *sqlx.DB) port.ExtractionRepository {
	return &extractionRepo{db: db}
}

func (r *extractionRepo) Create(ctx context.Context, e *domain.Extraction) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `INSERT INTO extractions
		(id, file_name, content_type, file_size, s3_bucket, s3_key,
		 status, invoice, error, model_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.FileName, e.ContentType, e.FileSize, e.S3Bucket, e.S3Key,
		e.Status, e.Invoice, e.Error, e.ModelUsed, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("extractionRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionRepo) Update(ctx context.Context, e *domain.Extraction) error {
	e.UpdatedAt = time.Now().UTC()

	query := `UPDATE extractions
		SET status = $2, invoice = $3, error = $4, updated_at = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, e.ID, e.Status, e.Invoice, e.Error, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("extractionRepo.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Extraction, error) {
	var e domain.Extraction
	err := r.db.GetContext(ctx, &e, "SELECT * FROM extractions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("extractionRepo.GetByID: %w", err)
	}
	return &e, nil
}

func (r *extractionRepo) List(ctx context.Context, offset, limit int) ([]domain.Extraction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM extractions"); err != nil {
		return nil, 0, fmt.Errorf("extractionRepo.List count: %w", err)
	}

	var extractions []domain.Extraction
	err := r.db.SelectContext(ctx, &extractions,
		"SELECT * FROM extractions ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("extractionRepo.List: %w", err)
	}
	return extractions, total, nil
}

func (r *extractionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM extractions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("extractionRepo.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
