package backup

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

// Handler serves backup downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the backup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers backup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.download)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("create backup", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "Gagal membuat backup")
		return
	}

	var buf bytes.Buffer
	contentType, ext := "application/json", "json"
	if r.URL.Query().Get("format") == "zip" {
		contentType, ext = "application/zip", "zip"
		err = WriteArchive(&buf, snap)
	} else {
		err = WriteJSON(&buf, snap)
	}
	if err != nil {
		h.logger.Error("encode backup", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "Gagal membuat backup")
		return
	}

	h.logger.Info("backup downloaded", slog.Any("rows", snap.Counts()), slog.String("format", ext))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename(snap.GeneratedAt, ext)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
