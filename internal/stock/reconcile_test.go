package stock

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanNewInvoiceConsumesStock(t *testing.T) {
	levels := Quantities{1: 10}

	plan, err := PlanReconciliation(context.Background(), Quantities{}, Quantities{1: 4}, MapLookup(levels))
	require.NoError(t, err)
	require.Equal(t, []Delta{{ItemID: 1, Qty: 4}}, plan.Deltas)
	assert.Equal(t, int64(6), plan.Apply(levels)[1])
}

func TestPlanReducedQuantityReturnsStock(t *testing.T) {
	levels := Quantities{1: 6}

	plan, err := PlanReconciliation(context.Background(), Quantities{1: 4}, Quantities{1: 2}, MapLookup(levels))
	require.NoError(t, err)
	require.Equal(t, []Delta{{ItemID: 1, Qty: -2}}, plan.Deltas)
	assert.Equal(t, int64(8), plan.Apply(levels)[1])
}

func TestPlanInsufficientStock(t *testing.T) {
	plan, err := PlanReconciliation(context.Background(), Quantities{}, Quantities{2: 5}, MapLookup(Quantities{2: 3}))
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, plan.Empty())

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(2), stockErr.ItemID)
	assert.Equal(t, int64(3), stockErr.Available)
	assert.Equal(t, int64(5), stockErr.Requested)
}

func TestPlanInsufficientStockCountsReleasedQuantity(t *testing.T) {
	// 5 were reserved by this invoice and 1 is left on hand.
	_, err := PlanReconciliation(context.Background(), Quantities{2: 5}, Quantities{2: 9}, MapLookup(Quantities{2: 1}))
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(6), stockErr.Available)
	assert.Equal(t, int64(9), stockErr.Requested)
}

func TestPlanItemNotFound(t *testing.T) {
	_, err := PlanReconciliation(context.Background(), Quantities{}, Quantities{7: 1}, MapLookup(Quantities{}))
	require.ErrorIs(t, err, ErrItemNotFound)

	var nf *ItemNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(7), nf.ItemID)
}

func TestPlanRemovedLineSkipsLookup(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context, id int64) (int64, error) {
		calls++
		return 0, nil
	}
	plan, err := PlanReconciliation(context.Background(), Quantities{3: 2}, Quantities{}, lookup)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, []Delta{{ItemID: 3, Qty: -2}}, plan.Deltas)
}

func TestPlanLookupFailureIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	lookup := func(ctx context.Context, id int64) (int64, error) { return 0, boom }
	_, err := PlanReconciliation(context.Background(), nil, Quantities{1: 1}, lookup)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrItemNotFound)
}

func TestPlanRejectsNonPositiveQuantity(t *testing.T) {
	_, err := PlanReconciliation(context.Background(), nil, Quantities{1: 0}, MapLookup(Quantities{1: 10}))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlanIsOrderedByItemID(t *testing.T) {
	levels := Quantities{9: 10, 2: 10, 5: 10}
	plan, err := PlanReconciliation(context.Background(), Quantities{5: 3}, Quantities{9: 1, 2: 1}, MapLookup(levels))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 9}, plan.ItemIDs())
}

func TestTallyRejectsDuplicates(t *testing.T) {
	_, err := Tally([]Line{{ItemID: 1, Qty: 1}, {ItemID: 1, Qty: 2}})
	require.ErrorIs(t, err, ErrDuplicateItem)

	q, err := Tally([]Line{{ItemID: 1, Qty: 1}, {ItemID: 2, Qty: 2}})
	require.NoError(t, err)
	assert.Equal(t, Quantities{1: 1, 2: 2}, q)
}

func randomQuantities(r *rand.Rand, items int) Quantities {
	q := Quantities{}
	for id := int64(1); id <= int64(items); id++ {
		if r.Intn(2) == 0 {
			q[id] = int64(r.Intn(8) + 1)
		}
	}
	return q
}

func TestPlanProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		levels := Quantities{}
		for id := int64(1); id <= 5; id++ {
			levels[id] = int64(r.Intn(12))
		}
		a := randomQuantities(r, 5)
		b := randomQuantities(r, 5)

		// identical line sets never move stock
		same, err := PlanReconciliation(ctx, a, a, MapLookup(levels))
		require.NoError(t, err)
		require.True(t, same.Empty())

		forward, err := PlanReconciliation(ctx, a, b, MapLookup(levels))
		if err != nil {
			require.True(t, forward.Empty())
			require.True(t, errors.Is(err, ErrInsufficientStock))
			continue
		}
		after := forward.Apply(levels)
		for id, qty := range after {
			require.GreaterOrEqual(t, qty, int64(0), "item %d went negative", id)
		}

		back, err := PlanReconciliation(ctx, b, a, MapLookup(after))
		require.NoError(t, err)
		require.Equal(t, forward.Negate(), back)
		require.Equal(t, levels, back.Apply(after))
	}
}
