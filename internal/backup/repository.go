package backup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edi-sejahtera/sejahtera/internal/platform/db"
)

// Repository dumps tables through pgx.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs the repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Consistent runs fn against a repository bound to one read-only snapshot
// transaction. Connections that cannot begin transactions are used as is.
func (r *Repository) Consistent(ctx context.Context, fn func(Source) error) error {
	b, ok := r.db.(db.Beginner)
	if !ok {
		return fn(r)
	}
	return db.ReadSnapshot(ctx, b, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx})
	})
}

// Dump returns every row of table ordered by id.
func (r *Repository) Dump(ctx context.Context, table string) ([]Row, error) {
	if !known(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	rows, err := r.db.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize()+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = Row(m)
	}
	return out, nil
}

func known(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
