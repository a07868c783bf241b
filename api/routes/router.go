package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolcrib/toolcrib-backend/api/controllers"
	"github.com/toolcrib/toolcrib-backend/api/middleware"
	"github.com/toolcrib/toolcrib-backend/internal/borrowers"
	"github.com/toolcrib/toolcrib-backend/internal/catalog"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/internal/reports"
	"github.com/toolcrib/toolcrib-backend/pkg/config"
	"github.com/toolcrib/toolcrib-backend/pkg/db"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/redis"
)

// RouterParams collect everything the HTTP surface depends on.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     redis.Pinger
	Catalog   catalog.Service
	Borrowers borrowers.Service
	Lending   lending.Engine
	Reports   reports.Service
	Gatherer  prometheus.Gatherer
}

// NewRouter wires middleware, health checks, and the v1 API routes.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.CreateItem(params.Catalog, logg))
			r.Get("/", controllers.ListItems(params.Catalog, logg))
			r.Get("/{itemID}", controllers.GetItem(params.Catalog, logg))
			r.Post("/{itemID}/restock", controllers.RestockItem(params.Catalog, logg))
		})

		r.Route("/borrowers", func(r chi.Router) {
			r.Post("/", controllers.RegisterBorrower(params.Borrowers, logg))
			r.Get("/", controllers.ListBorrowers(params.Borrowers, logg))
			r.Get("/{borrowerID}", controllers.GetBorrower(params.Borrowers, logg))
			r.Get("/{borrowerID}/items", controllers.ListBorrowerItems(params.Reports, logg))
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/borrow", controllers.BorrowItem(params.Lending, logg))
			r.Post("/return", controllers.ReturnItem(params.Lending, logg))
			r.Get("/history", controllers.LoanHistory(params.Reports, logg))
			r.Get("/overdue", controllers.OverdueLoans(params.Reports, logg))
		})
	})

	return r
}
