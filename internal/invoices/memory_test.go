package invoices

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edi-sejahtera/sejahtera/internal/stock"
)

// memoryRepo keeps invoices in maps. Item rows are locked per id until the
// transaction ends, like SELECT ... FOR UPDATE.
type memoryRepo struct {
	mu        sync.Mutex
	invoices  map[int64]Invoice
	items     map[int64]ItemSnapshot
	branches  map[int64][]int64
	itemLocks map[int64]*sync.Mutex
	nextID    int64
	conflicts int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices:  make(map[int64]Invoice),
		items:     make(map[int64]ItemSnapshot),
		branches:  make(map[int64][]int64),
		itemLocks: make(map[int64]*sync.Mutex),
	}
}

func (m *memoryRepo) addItem(id int64, name string, stockQty int64, price string) {
	m.items[id] = ItemSnapshot{ID: id, Name: name, Unit: "pcs", Price: decimalFrom(price), Stock: stockQty}
}

func (m *memoryRepo) stockOf(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Stock
}

type memoryTx struct {
	repo    *memoryRepo
	held    []*sync.Mutex
	headers map[int64]Invoice
	lines   map[int64][]Line
	plans   []stock.Plan
	deleted []int64
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	if m.conflicts > 0 {
		m.conflicts--
		m.mu.Unlock()
		return fmt.Errorf("%w: serialization failure", ErrConcurrentModification)
	}
	m.mu.Unlock()

	tx := &memoryTx{repo: m, headers: map[int64]Invoice{}, lines: map[int64][]Line{}}
	defer tx.release()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (t *memoryTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

// commit checks everything first and only then writes, so a failed commit
// leaves the maps untouched like a rolled back transaction.
func (t *memoryTx) commit() error {
	m := t.repo
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, inv := range t.headers {
		for otherID, other := range m.invoices {
			if otherID != id && other.Number == inv.Number {
				return ErrDuplicateNumber
			}
		}
	}
	levels := map[int64]int64{}
	for _, plan := range t.plans {
		for _, d := range plan.Deltas {
			qty, ok := levels[d.ItemID]
			if !ok {
				qty = m.items[d.ItemID].Stock
			}
			qty -= d.Qty
			if qty < 0 {
				return fmt.Errorf("item %d: %w", d.ItemID, stock.ErrInsufficientStock)
			}
			levels[d.ItemID] = qty
		}
	}

	now := time.Now()
	for id, inv := range t.headers {
		if prev, ok := m.invoices[id]; ok {
			inv.CreatedAt = prev.CreatedAt
			inv.Lines = prev.Lines
		} else {
			inv.CreatedAt = now
		}
		inv.UpdatedAt = now
		m.invoices[id] = inv
	}
	for id, lines := range t.lines {
		inv := m.invoices[id]
		inv.Lines = lines
		m.invoices[id] = inv
	}
	for id, qty := range levels {
		it := m.items[id]
		it.Stock = qty
		m.items[id] = it
	}
	for _, id := range t.deleted {
		delete(m.invoices, id)
	}
	return nil
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.Search != "" && !strings.Contains(inv.Number, filter.Search) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (m *memoryRepo) NumbersBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, inv := range m.invoices {
		if !inv.Date.Before(from) && inv.Date.Before(to) {
			out = append(out, inv.Number)
		}
	}
	return out, nil
}

func (t *memoryTx) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) LockItems(ctx context.Context, ids []int64) (map[int64]ItemSnapshot, error) {
	m := t.repo
	for _, id := range ids {
		m.mu.Lock()
		l, ok := m.itemLocks[id]
		if !ok {
			l = &sync.Mutex{}
			m.itemLocks[id] = l
		}
		m.mu.Unlock()
		l.Lock()
		t.held = append(t.held, l)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]ItemSnapshot, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (t *memoryTx) CustomerBranchIDs(ctx context.Context, customerID int64) ([]int64, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	ids, ok := t.repo.branches[customerID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return ids, nil
}

func (t *memoryTx) Insert(ctx context.Context, inv Invoice) (int64, error) {
	t.repo.mu.Lock()
	for _, other := range t.repo.invoices {
		if other.Number == inv.Number {
			t.repo.mu.Unlock()
			return 0, ErrDuplicateNumber
		}
	}
	t.repo.nextID++
	inv.ID = t.repo.nextID
	t.repo.mu.Unlock()
	t.headers[inv.ID] = inv
	return inv.ID, nil
}

func (t *memoryTx) UpdateHeader(ctx context.Context, inv Invoice) error {
	t.headers[inv.ID] = inv
	return nil
}

func (t *memoryTx) ReplaceLines(ctx context.Context, invoiceID int64, lines []Line) error {
	stored := make([]Line, len(lines))
	for i, l := range lines {
		l.InvoiceID = invoiceID
		stored[i] = l
	}
	t.lines[invoiceID] = stored
	return nil
}

func (t *memoryTx) ApplyPlan(ctx context.Context, plan stock.Plan) error {
	t.plans = append(t.plans, plan)
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, id int64) error {
	t.deleted = append(t.deleted, id)
	return nil
}

type countingObserver struct {
	mu       sync.Mutex
	rejected map[string]int
	retried  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{rejected: map[string]int{}, retried: map[string]int{}}
}

func (o *countingObserver) StockRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected[reason]++
}

func (o *countingObserver) TxRetried(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retried[op]++
}
