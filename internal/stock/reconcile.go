// Package stock decides how invoice edits move item stock.
package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrItemNotFound indicates a referenced item does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrInsufficientStock indicates net consumption exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity indicates a proposed quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// ItemNotFoundError reports the missing item.
type ItemNotFoundError struct {
	ItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %d not found", e.ItemID)
}

func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// InsufficientStockError carries the figures needed to explain a rejection.
// Available already includes the quantity released by the previous version
// of the invoice.
type InsufficientStockError struct {
	ItemID    int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: available %d, requested %d", e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Quantities maps item id to quantity.
type Quantities map[int64]int64

// Lookup returns the current stock of an item. Implementations return an
// error wrapping ErrItemNotFound when the item does not exist.
type Lookup func(ctx context.Context, itemID int64) (int64, error)

// Delta is applied as stock_quantity -= Qty. Negative values return stock.
type Delta struct {
	ItemID int64 `json:"item_id"`
	Qty    int64 `json:"delta"`
}

// Plan is the ordered set of stock adjustments for one invoice change.
type Plan struct {
	Deltas []Delta `json:"deltas"`
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Deltas) == 0
}

// ItemIDs lists the items the plan touches in ascending order.
func (p Plan) ItemIDs() []int64 {
	ids := make([]int64, len(p.Deltas))
	for i, d := range p.Deltas {
		ids[i] = d.ItemID
	}
	return ids
}

// Apply returns a copy of levels with every delta subtracted.
func (p Plan) Apply(levels Quantities) Quantities {
	out := make(Quantities, len(levels))
	for id, qty := range levels {
		out[id] = qty
	}
	for _, d := range p.Deltas {
		out[d.ItemID] -= d.Qty
	}
	return out
}

// Negate returns the plan that undoes p.
func (p Plan) Negate() Plan {
	out := Plan{Deltas: make([]Delta, len(p.Deltas))}
	for i, d := range p.Deltas {
		out.Deltas[i] = Delta{ItemID: d.ItemID, Qty: -d.Qty}
	}
	return out
}

// PlanReconciliation computes the stock deltas needed to move an invoice from
// previous to proposed quantities. Only items whose net consumption grows are
// looked up. Nothing is returned besides the error when any check fails.
func PlanReconciliation(ctx context.Context, previous, proposed Quantities, lookup Lookup) (Plan, error) {
	for id, qty := range proposed {
		if qty < 1 {
			return Plan{}, fmt.Errorf("item %d: %w", id, ErrInvalidQuantity)
		}
	}

	ids := unionIDs(previous, proposed)
	deltas := make([]Delta, 0, len(ids))
	for _, id := range ids {
		prev := previous[id]
		next := proposed[id]
		delta := next - prev
		if delta == 0 {
			continue
		}
		if delta > 0 {
			if lookup == nil {
				return Plan{}, &ItemNotFoundError{ItemID: id}
			}
			current, err := lookup(ctx, id)
			if err != nil {
				if errors.Is(err, ErrItemNotFound) {
					return Plan{}, &ItemNotFoundError{ItemID: id}
				}
				return Plan{}, fmt.Errorf("lookup item %d: %w", id, err)
			}
			if current < delta {
				return Plan{}, &InsufficientStockError{
					ItemID:    id,
					Available: current + prev,
					Requested: next,
				}
			}
		}
		deltas = append(deltas, Delta{ItemID: id, Qty: delta})
	}
	return Plan{Deltas: deltas}, nil
}

func unionIDs(a, b Quantities) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	ids := make([]int64, 0, len(a)+len(b))
	for _, m := range []Quantities{a, b} {
		for id := range m {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
