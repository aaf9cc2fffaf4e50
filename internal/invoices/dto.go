package invoices

import "github.com/shopspring/decimal"

// InvoiceRequest creates or replaces an invoice. Totals are always computed
// server side from the lines.
type InvoiceRequest struct {
	InvoiceNumber        string        `json:"invoice_number" validate:"required"`
	CustomerID           int64         `json:"customer_id" validate:"required,gt=0"`
	Date                 string        `json:"date" validate:"required,datetime=2006-01-02"`
	PONumber             string        `json:"po_number" validate:"max=100"`
	DeliveryNoteBranchID int64         `json:"delivery_note_branch_id" validate:"required,gt=0"`
	InvoiceBranchID      int64         `json:"invoice_branch_id" validate:"required,gt=0"`
	DPPRate              *Rate         `json:"dpp_rate,omitempty"`
	TaxRate              *Rate         `json:"tax_rate,omitempty"`
	Lines                []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// LineRequest is one requested line. Price and Unit default to the item's
// current values when omitted.
type LineRequest struct {
	ItemID   int64            `json:"item_id" validate:"required,gt=0"`
	Quantity int64            `json:"quantity" validate:"gte=1"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Unit     string           `json:"unit,omitempty" validate:"max=50"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Search string
	Limit  int
}
