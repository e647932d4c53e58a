package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"plinvoice/internal/port"
)

type ncmRepo struct {
	db *sqlx.DB
}

// NewNCMRepo creates a new PostgreSQL-backed NCMRepository.
func NewNCMRepo(db *sqlx.DB) port.NCMRepository {
	return &ncmRepo{db: db}
}

func (r *ncmRepo) LoadAll(ctx context.Context) ([]port.NCMEntry, error) {
	var entries []port.NCMEntry
	err := r.db.SelectContext(ctx, &entries,
		"SELECT code, description FROM ncm_codes ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("ncmRepo.LoadAll: %w", err)
	}
	return entries, nil
}
