package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
	"github.com/edi-sejahtera/sejahtera/internal/stock"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the invoice handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), ListFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) nextNumber(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"date": "format tanggal harus YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	number, err := h.service.NextNumber(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"invoice_number": number})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req InvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *StockRejection
	var missing *stock.ItemNotFoundError
	switch {
	case errors.As(err, &rejection):
		httpx.JSON(w, http.StatusUnprocessableEntity, httpx.ProblemDetail{
			Title:  "Insufficient Stock",
			Status: http.StatusUnprocessableEntity,
			Detail: rejection.Error(),
			Extra: map[string]any{
				"item_id":   rejection.Cause.ItemID,
				"available": rejection.Cause.Available,
				"requested": rejection.Cause.Requested,
			},
		})
	case errors.Is(err, stock.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", "Stok tidak mencukupi")
	case errors.As(err, &missing):
		httpx.JSON(w, http.StatusBadRequest, httpx.ProblemDetail{
			Title:  "Item Not Found",
			Status: http.StatusBadRequest,
			Detail: "Barang tidak ditemukan",
			Extra:  map[string]any{"item_id": missing.ItemID},
		})
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Invoice tidak ditemukan")
	case errors.Is(err, ErrCustomerNotFound):
		httpx.RespondError(w, httpx.FieldErrors{"customer_id": "pelanggan tidak ditemukan"})
	case errors.Is(err, ErrBranchMismatch):
		httpx.RespondError(w, httpx.FieldErrors{"invoice_branch_id": "cabang harus milik pelanggan yang dipilih"})
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Conflict", "Nomor invoice sudah dipakai")
	case errors.Is(err, ErrConcurrentModification):
		httpx.Problem(w, http.StatusConflict, "Conflict", "Data sedang diubah pengguna lain, silakan coba lagi")
	case errors.Is(err, ErrSequenceExhausted):
		httpx.Problem(w, http.StatusConflict, "Conflict", "Nomor invoice bulan ini sudah habis")
	case errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error("invoices request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
