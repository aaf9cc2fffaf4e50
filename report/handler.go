package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

// Handler exposes the PDF renderer's health under /report.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

type pingStatus struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker"`
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.String("breaker", h.client.BreakerState()), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Layanan PDF tidak tersedia", "Gotenberg tidak merespons pemeriksaan kesehatan")
		return
	}
	httpx.JSON(w, http.StatusOK, pingStatus{Status: "ok", Breaker: h.client.BreakerState()})
}
