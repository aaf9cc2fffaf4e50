package stock

import (
	"context"
	"errors"
	"fmt"
)

// ErrDuplicateItem indicates an item listed twice in one invoice.
var ErrDuplicateItem = errors.New("item listed more than once")

// Line is the quantity-only view of an invoice line.
type Line struct {
	ItemID int64
	Qty    int64
}

// Tally folds lines into Quantities, rejecting repeated item ids.
func Tally(lines []Line) (Quantities, error) {
	out := make(Quantities, len(lines))
	for _, l := range lines {
		if _, ok := out[l.ItemID]; ok {
			return nil, fmt.Errorf("item %d: %w", l.ItemID, ErrDuplicateItem)
		}
		out[l.ItemID] = l.Qty
	}
	return out, nil
}

// MapLookup serves stock levels from an already locked snapshot.
func MapLookup(levels Quantities) Lookup {
	return func(_ context.Context, itemID int64) (int64, error) {
		qty, ok := levels[itemID]
		if !ok {
			return 0, &ItemNotFoundError{ItemID: itemID}
		}
		return qty, nil
	}
}
