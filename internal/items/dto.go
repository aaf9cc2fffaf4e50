package items

import "github.com/shopspring/decimal"

// ItemRequest is the payload for creating or replacing an item.
type ItemRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Unit          string          `json:"unit" validate:"required,max=50"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity" validate:"gte=0"`
}

// ListFilter narrows item listings.
type ListFilter struct {
	Search string
	Limit  int
}
