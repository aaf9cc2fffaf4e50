// Package documents renders invoices, delivery notes and goods-received
// notes to PDF.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/edi-sejahtera/sejahtera/internal/customers"
	"github.com/edi-sejahtera/sejahtera/internal/invoices"
	"github.com/edi-sejahtera/sejahtera/report"
)

// ErrUnknownKind indicates an unsupported document kind.
var ErrUnknownKind = errors.New("unknown document kind")

// Kind names a printable document.
type Kind string

// Supported kinds, matching their URL segment.
const (
	KindInvoice           Kind = "invoice"
	KindDeliveryNote      Kind = "delivery-note"
	KindGoodsReceivedNote Kind = "goods-received-note"
)

type layout struct {
	template string
	prefix   string
	branch   func(invoices.Invoice) customers.Branch
}

var layouts = map[Kind]layout{
	KindInvoice: {
		template: "invoice.html",
		prefix:   "invoice",
		branch:   func(inv invoices.Invoice) customers.Branch { return inv.InvoiceBranch },
	},
	KindDeliveryNote: {
		template: "delivery_note.html",
		prefix:   "surat-jalan",
		branch:   func(inv invoices.Invoice) customers.Branch { return inv.DeliveryNoteBranch },
	},
	KindGoodsReceivedNote: {
		template: "goods_received_note.html",
		prefix:   "tanda-terima",
		branch:   func(inv invoices.Invoice) customers.Branch { return inv.InvoiceBranch },
	},
}

// InvoiceSource loads invoices with customer and lines.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (invoices.Invoice, error)
}

// TemplateRenderer produces HTML for a named template.
type TemplateRenderer interface {
	Render(name string, data any) ([]byte, error)
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte, opts report.PageOptions) ([]byte, error)
}

// Document is a rendered PDF ready to send.
type Document struct {
	Filename string
	PDF      []byte
}

// RenderObserver is told how each document request was served: "cache",
// "render" or "error".
type RenderObserver interface {
	DocumentServed(kind, outcome string)
}

// Config tunes rendering.
type Config struct {
	Company  Company
	CacheTTL time.Duration
	Page     report.PageOptions
	Observer RenderObserver
}

// Service renders documents and caches the results.
type Service struct {
	source   InvoiceSource
	html     TemplateRenderer
	pdf      PDFRenderer
	cache    Cache
	cfg      Config
	logger   *slog.Logger
	inflight singleflight.Group
}

// NewService wires the rendering pipeline. cache may be nil.
func NewService(source InvoiceSource, html TemplateRenderer, pdf PDFRenderer, cache Cache, cfg Config, logger *slog.Logger) *Service {
	if cfg.Company.Name == "" {
		cfg.Company = DefaultCompany()
	}
	if cfg.Page.PaperWidth == 0 {
		cfg.Page = report.A4()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, html: html, pdf: pdf, cache: cache, cfg: cfg, logger: logger}
}

type page struct {
	Company  Company
	Invoice  invoices.Invoice
	Customer customers.Customer
	Branch   customers.Branch
	DPPLabel string
	PPNLabel string
}

// HTML renders the document markup for an invoice.
func (s *Service) HTML(kind Kind, inv invoices.Invoice) ([]byte, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s.html.Render(l.template, page{
		Company:  s.cfg.Company,
		Invoice:  inv,
		Customer: inv.Customer,
		Branch:   l.branch(inv),
		DPPLabel: fmt.Sprintf("DPP (%s)", inv.DPPRate),
		PPNLabel: "PPN " + inv.TaxRate.Percent(),
	})
}

// Render returns the PDF for an invoice. Results are cached per invoice
// version and concurrent requests for the same version share one render.
func (s *Service) Render(ctx context.Context, kind Kind, invoiceID int64) (Document, error) {
	l, ok := layouts[kind]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	inv, err := s.source.Get(ctx, invoiceID)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Filename: filename(l.prefix, inv.Number)}
	key := fmt.Sprintf("%s:%d:%d", kind, inv.ID, inv.UpdatedAt.UnixNano())

	if pdf, ok := s.cached(ctx, key); ok {
		s.observe(kind, "cache")
		doc.PDF = pdf
		return doc, nil
	}

	// Shared by every caller waiting on key; the client timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		html, err := s.HTML(kind, inv)
		if err != nil {
			return nil, err
		}
		pdf, err := s.pdf.RenderHTML(shared, html, s.cfg.Page)
		if err != nil {
			return nil, fmt.Errorf("render %s pdf: %w", kind, err)
		}
		s.store(shared, key, pdf)
		return pdf, nil
	})
	if err != nil {
		s.observe(kind, "error")
		return Document{}, err
	}
	s.observe(kind, "render")
	doc.PDF = v.([]byte)
	return doc, nil
}

func (s *Service) observe(kind Kind, outcome string) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.DocumentServed(string(kind), outcome)
	}
}

func (s *Service) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	pdf, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("document cache read failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return pdf, ok
}

func (s *Service) store(ctx context.Context, key string, pdf []byte) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, pdf, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("document cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func filename(prefix, number string) string {
	return prefix + "-" + strings.ReplaceAll(number, "/", "-") + ".pdf"
}
