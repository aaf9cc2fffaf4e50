package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edi-sejahtera/sejahtera/internal/platform/db"
	"github.com/edi-sejahtera/sejahtera/internal/stock"
)

// Repository reads invoices and opens write transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	NumbersBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

// TxRepository holds the operations of one invoice write. Every method runs
// inside the transaction opened by WithTx.
type TxRepository interface {
	LockInvoice(ctx context.Context, id int64) (Invoice, error)
	LockItems(ctx context.Context, ids []int64) (map[int64]ItemSnapshot, error)
	CustomerBranchIDs(ctx context.Context, customerID int64) ([]int64, error)
	Insert(ctx context.Context, inv Invoice) (int64, error)
	UpdateHeader(ctx context.Context, inv Invoice) error
	ReplaceLines(ctx context.Context, invoiceID int64, lines []Line) error
	ApplyPlan(ctx context.Context, plan stock.Plan) error
	Delete(ctx context.Context, id int64) error
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
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{db: tx})
	})
	if db.IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	}
	return err
}

const headerSelect = `SELECT i.id, i.invoice_number, i.customer_id, i.date, i.po_number,
	i.delivery_note_branch_id, i.invoice_branch_id,
	i.subtotal, i.dpp, i.dpp_rate_numerator, i.dpp_rate_denominator,
	i.tax_rate_numerator, i.tax_rate_denominator, i.ppn, i.total,
	i.created_at, i.updated_at,
	c.name, c.phone, c.fax, c.npwp,
	dn.address, dn.city, dn.postal_code, dn.phone,
	ib.address, ib.city, ib.postal_code, ib.phone
FROM invoices i
JOIN customers c ON c.id = i.customer_id
JOIN customer_branches dn ON dn.id = i.delivery_note_branch_id
JOIN customer_branches ib ON ib.id = i.invoice_branch_id`

func scanHeader(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.CustomerID, &inv.Date, &inv.PONumber,
		&inv.DeliveryNoteBranchID, &inv.InvoiceBranchID,
		&inv.Subtotal, &inv.DPP, &inv.DPPRate.Numerator, &inv.DPPRate.Denominator,
		&inv.TaxRate.Numerator, &inv.TaxRate.Denominator, &inv.PPN, &inv.Total,
		&inv.CreatedAt, &inv.UpdatedAt,
		&inv.Customer.Name, &inv.Customer.Phone, &inv.Customer.Fax, &inv.Customer.NPWP,
		&inv.DeliveryNoteBranch.Address, &inv.DeliveryNoteBranch.City, &inv.DeliveryNoteBranch.PostalCode, &inv.DeliveryNoteBranch.Phone,
		&inv.InvoiceBranch.Address, &inv.InvoiceBranch.City, &inv.InvoiceBranch.PostalCode, &inv.InvoiceBranch.Phone,
	)
	if err != nil {
		return Invoice{}, err
	}
	inv.Customer.ID = inv.CustomerID
	inv.DeliveryNoteBranch.ID = inv.DeliveryNoteBranchID
	inv.DeliveryNoteBranch.CustomerID = inv.CustomerID
	inv.InvoiceBranch.ID = inv.InvoiceBranchID
	inv.InvoiceBranch.CustomerID = inv.CustomerID
	return inv, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := headerSelect
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += ` WHERE i.invoice_number ILIKE $1 OR c.name ILIKE $1`
	}
	query += ` ORDER BY i.created_at DESC, i.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	var ids []int64
	for rows.Next() {
		inv, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	lines, err := loadLines(ctx, r.db, ids, false)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Invoice, error) {
	return getInvoice(ctx, r.db, id, false)
}

func getInvoice(ctx context.Context, q db.DBTX, id int64, forUpdate bool) (Invoice, error) {
	query := headerSelect + ` WHERE i.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF i`
	}
	inv, err := scanHeader(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	lines, err := loadLines(ctx, q, []int64{id}, forUpdate)
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines = lines[id]
	return inv, nil
}

func loadLines(ctx context.Context, q db.DBTX, invoiceIDs []int64, forUpdate bool) (map[int64][]Line, error) {
	query := `SELECT d.id, d.invoice_id, d.item_id, it.name, d.quantity, d.price, d.unit, d.subtotal
FROM invoice_details d
JOIN items it ON it.id = d.item_id
WHERE d.invoice_id = ANY($1)
ORDER BY d.invoice_id, d.id`
	if forUpdate {
		query += ` FOR UPDATE OF d`
	}
	rows, err := q.Query(ctx, query, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Line, len(invoiceIDs))
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ItemID, &l.ItemName, &l.Quantity, &l.Price, &l.Unit, &l.Subtotal); err != nil {
			return nil, err
		}
		out[l.InvoiceID] = append(out[l.InvoiceID], l)
	}
	return out, rows.Err()
}

func (r *repository) NumbersBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT invoice_number FROM invoices WHERE date >= $1 AND date < $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (t *txRepository) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	return getInvoice(ctx, t.db, id, true)
}

// LockItems takes row locks in ascending id order so that competing invoices
// always queue in the same order.
func (t *txRepository) LockItems(ctx context.Context, ids []int64) (map[int64]ItemSnapshot, error) {
	out := make(map[int64]ItemSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := t.db.Query(ctx, `SELECT id, name, unit, price, stock_quantity
FROM items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s ItemSnapshot
		if err := rows.Scan(&s.ID, &s.Name, &s.Unit, &s.Price, &s.Stock); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (t *txRepository) CustomerBranchIDs(ctx context.Context, customerID int64) ([]int64, error) {
	var exists bool
	if err := t.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, customerID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}
	rows, err := t.db.Query(ctx, `SELECT id FROM customer_branches WHERE customer_id = $1 FOR SHARE`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *txRepository) Insert(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx, `INSERT INTO invoices (
	invoice_number, customer_id, date, po_number, delivery_note_branch_id, invoice_branch_id,
	subtotal, dpp, dpp_rate_numerator, dpp_rate_denominator,
	tax_rate_numerator, tax_rate_denominator, ppn, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id`,
		inv.Number, inv.CustomerID, inv.Date, inv.PONumber, inv.DeliveryNoteBranchID, inv.InvoiceBranchID,
		inv.Subtotal, inv.DPP, inv.DPPRate.Numerator, inv.DPPRate.Denominator,
		inv.TaxRate.Numerator, inv.TaxRate.Denominator, inv.PPN, inv.Total,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, ErrDuplicateNumber
	}
	return id, err
}

func (t *txRepository) UpdateHeader(ctx context.Context, inv Invoice) error {
	tag, err := t.db.Exec(ctx, `UPDATE invoices SET
	invoice_number = $2, customer_id = $3, date = $4, po_number = $5,
	delivery_note_branch_id = $6, invoice_branch_id = $7,
	subtotal = $8, dpp = $9, dpp_rate_numerator = $10, dpp_rate_denominator = $11,
	tax_rate_numerator = $12, tax_rate_denominator = $13, ppn = $14, total = $15,
	updated_at = NOW()
WHERE id = $1`,
		inv.ID, inv.Number, inv.CustomerID, inv.Date, inv.PONumber,
		inv.DeliveryNoteBranchID, inv.InvoiceBranchID,
		inv.Subtotal, inv.DPP, inv.DPPRate.Numerator, inv.DPPRate.Denominator,
		inv.TaxRate.Numerator, inv.TaxRate.Denominator, inv.PPN, inv.Total,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) ReplaceLines(ctx context.Context, invoiceID int64, lines []Line) error {
	if _, err := t.db.Exec(ctx, `DELETE FROM invoice_details WHERE invoice_id = $1`, invoiceID); err != nil {
		return err
	}
	for _, l := range lines {
		_, err := t.db.Exec(ctx, `INSERT INTO invoice_details (invoice_id, item_id, quantity, price, unit, subtotal)
VALUES ($1, $2, $3, $4, $5, $6)`, invoiceID, l.ItemID, l.Quantity, l.Price, l.Unit, l.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) ApplyPlan(ctx context.Context, plan stock.Plan) error {
	for _, d := range plan.Deltas {
		tag, err := t.db.Exec(ctx, `UPDATE items
SET stock_quantity = stock_quantity - $2, updated_at = NOW()
WHERE id = $1`, d.ItemID, d.Qty)
		if err != nil {
			if db.IsCheckViolation(err) {
				return fmt.Errorf("item %d: %w", d.ItemID, stock.ErrInsufficientStock)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return &stock.ItemNotFoundError{ItemID: d.ItemID}
		}
	}
	return nil
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
