package documents

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edi-sejahtera/sejahtera/internal/invoices"
	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
	"github.com/edi-sejahtera/sejahtera/report"
)

// Handler serves PDF documents.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the document handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers document routes under an invoice router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/invoice", h.serve(KindInvoice))
	r.Get("/{id}/delivery-note", h.serve(KindDeliveryNote))
	r.Get("/{id}/goods-received-note", h.serve(KindGoodsReceivedNote))
}

func (h *Handler) serve(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Render(r.Context(), kind, id)
		if err != nil {
			if errors.Is(err, invoices.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "Invoice tidak ditemukan")
				return
			}
			if errors.Is(err, report.ErrUnavailable) {
				h.logger.Warn("document renderer unavailable", slog.String("kind", string(kind)), slog.Int64("invoice_id", id))
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "Layanan PDF sedang tidak tersedia, coba lagi nanti")
				return
			}
			h.logger.Error("render document", slog.String("kind", string(kind)), slog.Int64("invoice_id", id), slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "Gagal membuat PDF")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="`+doc.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.PDF)
	}
}
