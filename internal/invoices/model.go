// Package invoices owns invoice numbering, totals and the transactional
// application of stock reconciliation plans.
package invoices

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edi-sejahtera/sejahtera/internal/customers"
	"github.com/edi-sejahtera/sejahtera/internal/stock"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the invoice does not exist.
	ErrNotFound = httpx.NotFound("invoice not found")
	// ErrDuplicateNumber indicates the invoice number is already taken.
	ErrDuplicateNumber = httpx.Conflict("invoice number already used")
	// ErrCustomerNotFound indicates the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrBranchMismatch indicates a branch that does not belong to the customer.
	ErrBranchMismatch = errors.New("branch does not belong to customer")
	// ErrConcurrentModification indicates a serialization conflict; the
	// whole operation may be retried.
	ErrConcurrentModification = httpx.Conflict("concurrent modification")
	// ErrSequenceExhausted indicates no three digit sequence is left this month.
	ErrSequenceExhausted = httpx.Conflict("invoice sequence exhausted for month")
)

// Invoice is a sales invoice with its lines and derived totals.
type Invoice struct {
	ID                   int64              `json:"id"`
	Number               string             `json:"invoice_number"`
	CustomerID           int64              `json:"customer_id"`
	Customer             customers.Customer `json:"customer"`
	Date                 time.Time          `json:"date"`
	PONumber             string             `json:"po_number"`
	DeliveryNoteBranchID int64              `json:"delivery_note_branch_id"`
	DeliveryNoteBranch   customers.Branch   `json:"delivery_note_branch"`
	InvoiceBranchID      int64              `json:"invoice_branch_id"`
	InvoiceBranch        customers.Branch   `json:"invoice_branch"`
	DPPRate              Rate               `json:"dpp_rate"`
	TaxRate              Rate               `json:"tax_rate"`
	Totals
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is one item on an invoice. Price and Unit are captured at invoice time.
type Line struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Amount is quantity times price without rounding.
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Quantities returns the committed item quantities of the invoice.
func (inv Invoice) Quantities() stock.Quantities {
	q := make(stock.Quantities, len(inv.Lines))
	for _, l := range inv.Lines {
		q[l.ItemID] += l.Quantity
	}
	return q
}

// ItemSnapshot is an item row read under lock.
type ItemSnapshot struct {
	ID    int64
	Name  string
	Unit  string
	Price decimal.Decimal
	Stock int64
}

// StockRejection explains an insufficient stock failure with the item name.
type StockRejection struct {
	ItemName string
	Cause    *stock.InsufficientStockError
}

func (e *StockRejection) Error() string {
	return fmt.Sprintf("Insufficient stock for item %q. Available: %d, Requested: %d", e.ItemName, e.Cause.Available, e.Cause.Requested)
}

func (e *StockRejection) Unwrap() error { return e.Cause }
