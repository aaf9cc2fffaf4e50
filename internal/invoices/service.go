package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
	"github.com/edi-sejahtera/sejahtera/internal/stock"
)

// Observer receives invoice write events for metrics.
type Observer interface {
	StockRejected(reason string)
	TxRetried(op string)
}

type nopObserver struct{}

func (nopObserver) StockRejected(string) {}
func (nopObserver) TxRetried(string)     {}

// Config carries invoice defaults.
type Config struct {
	DPPRate      Rate
	TaxRate      Rate
	MaxRetries   int
	RetryBackoff time.Duration
}

// Service coordinates invoice writes with stock reconciliation.
type Service struct {
	repo     Repository
	cfg      Config
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// NewService constructs the invoice service. A nil observer disables metrics.
func NewService(repo Repository, cfg Config, logger *slog.Logger, observer Observer) *Service {
	if !cfg.DPPRate.Valid() {
		cfg.DPPRate = DefaultDPPRate
	}
	if !cfg.TaxRate.Valid() {
		cfg.TaxRate = DefaultTaxRate
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 20 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{repo: repo, cfg: cfg, logger: logger, observer: observer, now: time.Now}
}

// draft is a validated request.
type draft struct {
	Number               string
	CustomerID           int64
	Date                 time.Time
	PONumber             string
	DeliveryNoteBranchID int64
	InvoiceBranchID      int64
	DPPRate              Rate
	TaxRate              Rate
	Lines                []LineRequest
	Quantities           stock.Quantities
}

func (s *Service) prepare(req InvoiceRequest) (draft, error) {
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	req.PONumber = strings.TrimSpace(req.PONumber)
	req.Date = strings.TrimSpace(req.Date)
	if err := httpx.Validate(req); err != nil {
		return draft{}, err
	}

	fields := httpx.FieldErrors{}
	if !ValidNumber(req.InvoiceNumber) {
		fields["invoice_number"] = "format harus NNN/BULAN/TAHUN, contoh 031/XII/2023"
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		fields["date"] = "format tanggal harus YYYY-MM-DD"
	}
	d := draft{
		Number:               req.InvoiceNumber,
		CustomerID:           req.CustomerID,
		Date:                 date,
		PONumber:             req.PONumber,
		DeliveryNoteBranchID: req.DeliveryNoteBranchID,
		InvoiceBranchID:      req.InvoiceBranchID,
		DPPRate:              s.cfg.DPPRate,
		TaxRate:              s.cfg.TaxRate,
		Lines:                append([]LineRequest(nil), req.Lines...),
	}
	if req.DPPRate != nil {
		if !req.DPPRate.Valid() {
			fields["dpp_rate"] = "penyebut harus lebih dari 0"
		}
		d.DPPRate = *req.DPPRate
	}
	if req.TaxRate != nil {
		if !req.TaxRate.Valid() {
			fields["tax_rate"] = "penyebut harus lebih dari 0"
		}
		d.TaxRate = *req.TaxRate
	}

	lines := make([]stock.Line, len(req.Lines))
	for i, l := range req.Lines {
		if l.Price != nil && l.Price.IsNegative() {
			fields[fmt.Sprintf("lines[%d].price", i)] = "tidak boleh negatif"
		}
		d.Lines[i].Unit = strings.TrimSpace(l.Unit)
		lines[i] = stock.Line{ItemID: l.ItemID, Qty: l.Quantity}
	}
	q, err := stock.Tally(lines)
	if err != nil {
		fields["lines"] = "barang tidak boleh muncul lebih dari sekali"
	}
	d.Quantities = q

	if len(fields) > 0 {
		return draft{}, fields
	}
	return d, nil
}

// List returns invoices matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return list, nil
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// NextNumber proposes the next free invoice number in date's month.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (string, error) {
	if date.IsZero() {
		date = s.now()
	}
	from, to := MonthBounds(date)
	issued, err := s.repo.NumbersBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	n, err := NextNumber(date, issued)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return n, nil
}

// Create stores a new invoice and consumes stock for its lines.
func (s *Service) Create(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	d, err := s.prepare(req)
	if err != nil {
		return Invoice{}, err
	}
	var id int64
	err = s.withRetry(ctx, "create", func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			id, err = s.write(ctx, tx, Invoice{}, d)
			return err
		})
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces an invoice and moves stock by the difference between the
// committed lines and the requested ones. Rates left out of req keep the
// values stored on the invoice.
func (s *Service) Update(ctx context.Context, id int64, req InvoiceRequest) (Invoice, error) {
	d, err := s.prepare(req)
	if err != nil {
		return Invoice{}, err
	}
	err = s.withRetry(ctx, "update", func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.LockInvoice(ctx, id)
			if err != nil {
				return err
			}
			edit := d
			if req.DPPRate == nil {
				edit.DPPRate = current.DPPRate
			}
			if req.TaxRate == nil {
				edit.TaxRate = current.TaxRate
			}
			_, err = s.write(ctx, tx, current, edit)
			return err
		})
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes an invoice and its lines. Stock is not given back.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var removed Invoice
	err := s.withRetry(ctx, "delete", func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv, err := tx.LockInvoice(ctx, id)
			if err != nil {
				return err
			}
			removed = inv
			return tx.Delete(ctx, id)
		})
	})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	s.logger.Warn("invoice deleted without restoring stock",
		slog.Int64("invoice_id", id),
		slog.String("invoice_number", removed.Number),
		slog.Any("quantities", removed.Quantities()),
	)
	return nil
}

// write runs inside a transaction. current is the zero Invoice on create.
func (s *Service) write(ctx context.Context, tx TxRepository, current Invoice, d draft) (int64, error) {
	branches, err := tx.CustomerBranchIDs(ctx, d.CustomerID)
	if err != nil {
		return 0, err
	}
	owned := make(map[int64]bool, len(branches))
	for _, id := range branches {
		owned[id] = true
	}
	if !owned[d.DeliveryNoteBranchID] || !owned[d.InvoiceBranchID] {
		return 0, ErrBranchMismatch
	}

	previous := current.Quantities()
	snapshot, err := tx.LockItems(ctx, lockOrder(previous, d.Quantities))
	if err != nil {
		return 0, err
	}
	levels := make(stock.Quantities, len(snapshot))
	for id, it := range snapshot {
		levels[id] = it.Stock
	}
	for _, l := range d.Lines {
		if _, ok := snapshot[l.ItemID]; !ok {
			return 0, &stock.ItemNotFoundError{ItemID: l.ItemID}
		}
	}

	plan, err := stock.PlanReconciliation(ctx, previous, d.Quantities, stock.MapLookup(levels))
	if err != nil {
		var short *stock.InsufficientStockError
		if errors.As(err, &short) {
			s.observer.StockRejected("insufficient")
			return 0, &StockRejection{ItemName: snapshot[short.ItemID].Name, Cause: short}
		}
		if errors.Is(err, stock.ErrItemNotFound) {
			s.observer.StockRejected("not_found")
		}
		return 0, err
	}

	lines := make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		it := snapshot[l.ItemID]
		line := Line{ItemID: l.ItemID, ItemName: it.Name, Quantity: l.Quantity, Price: it.Price, Unit: it.Unit}
		if l.Price != nil {
			line.Price = *l.Price
		}
		if l.Unit != "" {
			line.Unit = l.Unit
		}
		line.Subtotal = line.Amount()
		lines[i] = line
	}

	inv := Invoice{
		ID:                   current.ID,
		Number:               d.Number,
		CustomerID:           d.CustomerID,
		Date:                 d.Date,
		PONumber:             d.PONumber,
		DeliveryNoteBranchID: d.DeliveryNoteBranchID,
		InvoiceBranchID:      d.InvoiceBranchID,
		DPPRate:              d.DPPRate,
		TaxRate:              d.TaxRate,
		Totals:               ComputeTotals(lines, d.DPPRate, d.TaxRate),
	}
	if inv.ID == 0 {
		inv.ID, err = tx.Insert(ctx, inv)
	} else {
		err = tx.UpdateHeader(ctx, inv)
	}
	if err != nil {
		return 0, err
	}
	if err := tx.ReplaceLines(ctx, inv.ID, lines); err != nil {
		return 0, err
	}
	if err := tx.ApplyPlan(ctx, plan); err != nil {
		return 0, err
	}
	return inv.ID, nil
}

func lockOrder(a, b stock.Quantities) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	for id := range a {
		seen[id] = struct{}{}
	}
	for id := range b {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.observer.TxRetried(op)
			s.logger.Info("retrying invoice transaction", slog.String("op", op), slog.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.cfg.RetryBackoff):
			}
		}
		err = fn()
		if !errors.Is(err, ErrConcurrentModification) {
			return err
		}
	}
	return err
}
