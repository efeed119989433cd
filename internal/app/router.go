package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/salesdesk-io/salesdesk/internal/catalog"
	"github.com/salesdesk-io/salesdesk/internal/clients"
	"github.com/salesdesk-io/salesdesk/internal/orders"
	"github.com/salesdesk-io/salesdesk/internal/quotes"
	"github.com/salesdesk-io/salesdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	QuotesHandler  *quotes.Handler
	OrdersHandler  *orders.Handler
	ClientsHandler *clients.Handler
	CatalogHandler *catalog.Handler
	JobsHandler    *jobs.Handler
}

// NewRouter constructs the chi.Router with salesdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/sales", func(sr chi.Router) {
		params.QuotesHandler.MountRoutes(sr)
		params.OrdersHandler.MountRoutes(sr)
		params.ClientsHandler.MountRoutes(sr)
	})

	r.Route("/catalog", func(cr chi.Router) {
		params.CatalogHandler.MountRoutes(cr)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			params.JobsHandler.MountRoutes(jr)
		})
	}

	return r
}
