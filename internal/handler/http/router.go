package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/internal/service"
	"github.com/CindyCUI423/Recam-sub000/pkg/health"
	"github.com/CindyCUI423/Recam-sub000/pkg/middleware"
)

const serviceName = "recam"

// RouterConfig carries the HTTP-level settings of the API.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	RateLimit         middleware.RateLimitConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all listing case and media routes registered.
func NewRouter(
	cfg RouterConfig,
	listingCaseService *service.ListingCaseService,
	mediaAssetService *service.MediaAssetService,
	recorder *history.Recorder,
	validate middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	listingCaseHandler := NewListingCaseHandler(listingCaseService, logger)
	mediaAssetHandler := NewMediaAssetHandler(mediaAssetService, logger)
	companyOnly := middleware.RequireRole(string(policy.RolePhotographyCompany))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validate))
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.CacheControl("private, no-store"))
		r.Use(ActivityLog(recorder))

		r.Route("/listings", func(r chi.Router) {
			r.With(companyOnly).Post("/", listingCaseHandler.CreateListingCase)
			r.Get("/", listingCaseHandler.ListListingCases)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", listingCaseHandler.GetListingCase)
				r.Put("/", listingCaseHandler.UpdateListingCase)
				r.Delete("/", listingCaseHandler.DeleteListingCase)
				r.Patch("/status", listingCaseHandler.ChangeStatus)

				r.With(companyOnly).Post("/agents", listingCaseHandler.AssignAgent)
				r.With(companyOnly).Delete("/agents/{agentId}", listingCaseHandler.UnassignAgent)

				r.Get("/contacts", listingCaseHandler.ListContacts)
				r.Post("/contacts", listingCaseHandler.AddContact)

				r.Get("/media", mediaAssetHandler.ListMedia)
				r.With(companyOnly).Post("/media", mediaAssetHandler.CreateMedia)
				r.Put("/media/selection", mediaAssetHandler.SetSelection)
			})
		})

		r.Route("/media/{id}", func(r chi.Router) {
			r.Put("/hero", mediaAssetHandler.SetHero)
			r.Delete("/", mediaAssetHandler.DeleteMedia)
		})
	})

	return r
}
