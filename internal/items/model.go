// Package items manages the item master: name, unit, price and stock on hand.
package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the item does not exist.
	ErrNotFound = httpx.NotFound("item not found")
	// ErrInUse indicates the item is referenced by invoice lines.
	ErrInUse = httpx.Conflict("item is referenced by invoices")
)

// Item is a stock keeping unit sold on invoices.
type Item struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
