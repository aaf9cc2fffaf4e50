package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edi-sejahtera/sejahtera/internal/platform/db"
)

// Repository persists customers.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, search string) ([]Customer, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// TxRepository exposes the writes that run inside one transaction.
type TxRepository interface {
	Insert(ctx context.Context, c Customer) (int64, error)
	UpdateHeader(ctx context.Context, c Customer) error
	Branches(ctx context.Context, customerID int64) ([]Branch, error)
	InsertBranch(ctx context.Context, b Branch) (int64, error)
	UpdateBranch(ctx context.Context, b Branch) error
	DeleteBranch(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
	db   db.DBTX
}

type txRepository struct {
	db db.DBTX
}

// NewRepository builds a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{db: tx})
	})
}

const customerColumns = `c.id, c.name, c.phone, c.fax, c.npwp, c.created_at, c.updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Fax, &c.NPWP, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, search string) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers c`
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		query += ` WHERE c.name ILIKE $1 OR EXISTS (
	SELECT 1 FROM customer_branches b
	WHERE b.customer_id = c.id AND (b.address ILIKE $1 OR b.phone ILIKE $1))`
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	ids := make([]int64, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	branches, err := loadBranches(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Branches = branches[out[i].ID]
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	branches, err := loadBranches(ctx, r.db, []int64{id})
	if err != nil {
		return Customer{}, err
	}
	c.Branches = branches[id]
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
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

const branchColumns = `id, customer_id, address, city, postal_code, phone, created_at, updated_at`

func loadBranches(ctx context.Context, q db.DBTX, customerIDs []int64) (map[int64][]Branch, error) {
	rows, err := q.Query(ctx, `SELECT `+branchColumns+` FROM customer_branches
WHERE customer_id = ANY($1) ORDER BY created_at, id`, customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Branch, len(customerIDs))
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.Address, &b.City, &b.PostalCode, &b.Phone, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out[b.CustomerID] = append(out[b.CustomerID], b)
	}
	return out, rows.Err()
}

func (t *txRepository) Insert(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx, `INSERT INTO customers (name, phone, fax, npwp)
VALUES ($1, $2, $3, $4) RETURNING id`, c.Name, c.Phone, c.Fax, c.NPWP).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateHeader(ctx context.Context, c Customer) error {
	tag, err := t.db.Exec(ctx, `UPDATE customers
SET name = $2, phone = $3, fax = $4, npwp = $5, updated_at = NOW()
WHERE id = $1`, c.ID, c.Name, c.Phone, c.Fax, c.NPWP)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) Branches(ctx context.Context, customerID int64) ([]Branch, error) {
	m, err := loadBranches(ctx, t.db, []int64{customerID})
	if err != nil {
		return nil, err
	}
	return m[customerID], nil
}

func (t *txRepository) InsertBranch(ctx context.Context, b Branch) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx, `INSERT INTO customer_branches (customer_id, address, city, postal_code, phone)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, b.CustomerID, b.Address, b.City, b.PostalCode, b.Phone).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateBranch(ctx context.Context, b Branch) error {
	_, err := t.db.Exec(ctx, `UPDATE customer_branches
SET address = $2, city = $3, postal_code = $4, phone = $5, updated_at = NOW()
WHERE id = $1`, b.ID, b.Address, b.City, b.PostalCode, b.Phone)
	return err
}

func (t *txRepository) DeleteBranch(ctx context.Context, id int64) error {
	_, err := t.db.Exec(ctx, `DELETE FROM customer_branches WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrBranchInUse
	}
	return err
}
