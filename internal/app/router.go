package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edi-sejahtera/sejahtera/api"
	"github.com/edi-sejahtera/sejahtera/internal/backup"
	"github.com/edi-sejahtera/sejahtera/internal/customers"
	"github.com/edi-sejahtera/sejahtera/internal/documents"
	"github.com/edi-sejahtera/sejahtera/internal/invoices"
	"github.com/edi-sejahtera/sejahtera/internal/items"
	"github.com/edi-sejahtera/sejahtera/internal/observability"
	"github.com/edi-sejahtera/sejahtera/jobs"
	"github.com/edi-sejahtera/sejahtera/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	ItemHandler     *items.Handler
	CustomerHandler *customers.Handler
	InvoiceHandler  *invoices.Handler
	DocumentHandler *documents.Handler
	BackupHandler   *backup.Handler
	ReportHandler   *report.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(api.OpenAPI)
		})
		if params.ItemHandler != nil {
			r.Route("/items", params.ItemHandler.MountRoutes)
		}
		if params.CustomerHandler != nil {
			r.Route("/customers", params.CustomerHandler.MountRoutes)
		}
		r.Route("/invoices", func(r chi.Router) {
			if params.InvoiceHandler != nil {
				params.InvoiceHandler.MountRoutes(r)
			}
			if params.DocumentHandler != nil {
				params.DocumentHandler.MountRoutes(r)
			}
		})
		if params.BackupHandler != nil {
			r.Route("/backup", params.BackupHandler.MountRoutes)
		}
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
