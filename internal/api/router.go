package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/api/handler"
	apimw "github.com/pantrywatch/expiry-notifier/internal/api/middleware"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	populator handler.PopulateRunner,
	drainer handler.DrainRunner,
	repo repository.QueueRepository,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	jh := handler.NewJobHandler(populator, drainer, logger)
	qh := handler.NewQueueHandler(repo, logger)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Job triggers, hit by the platform scheduler.
		r.Post("/jobs/populate", jh.Populate)
		r.Post("/jobs/drain", jh.Drain)

		// Queue inspection — note: /stats must be registered before
		// /{id} so chi does not treat the literal string "stats" as
		// an ID.
		r.Get("/queue/stats", qh.Stats)
		r.Get("/queue", qh.List)
		r.Get("/queue/{id}", qh.GetByID)
	})

	return r
}
