package port

import "context"

// NCMEntry is one row of the NCM classification-code master list.
type NCMEntry struct {
	Code        string `db:"code"`
	Description string `db:"description"`
}

// NCMRepository loads the NCM master list seeded into the database.
type NCMRepository interface {
	LoadAll(ctx context.Context) ([]NCMEntry, error)
}
