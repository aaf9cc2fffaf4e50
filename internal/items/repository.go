package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edi-sejahtera/sejahtera/internal/platform/db"
)

// Repository persists items.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const itemColumns = `id, name, unit, price, stock_quantity, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Unit, &it.Price, &it.StockQuantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" WHERE name ILIKE $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	const query = `INSERT INTO items (name, unit, price, stock_quantity)
VALUES ($1, $2, $3, $4)
RETURNING ` + itemColumns
	return scanItem(r.db.QueryRow(ctx, query, item.Name, item.Unit, item.Price, item.StockQuantity))
}

func (r *repository) Update(ctx context.Context, item Item) (Item, error) {
	const query = `UPDATE items
SET name = $2, unit = $3, price = $4, stock_quantity = $5, updated_at = NOW()
WHERE id = $1
RETURNING ` + itemColumns
	it, err := scanItem(r.db.QueryRow(ctx, query, item.ID, item.Name, item.Unit, item.Price, item.StockQuantity))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
