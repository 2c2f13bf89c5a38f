package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/campaign-intel-backend/api/controllers"
	"github.com/angelmondragon/campaign-intel-backend/api/middleware"
	"github.com/angelmondragon/campaign-intel-backend/internal/promotions"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	"github.com/angelmondragon/campaign-intel-backend/internal/shopping"
	"github.com/angelmondragon/campaign-intel-backend/pkg/config"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/redis"
)

// Dependencies are the services the router exposes. RedisPinger and
// RateLimiter stay nil when Redis is not configured.
type Dependencies struct {
	RedisPinger redis.Pinger
	RateLimiter redis.RateLimiter
	Metrics     prometheus.Gatherer
	Sessions    sessions.Store
	Shopping    shopping.Service
	Promotions  promotions.Service
	Agent       controllers.ChatAgent
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.RedisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(deps.Sessions, logg))

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.SessionGet(deps.Sessions, logg))
				r.Delete("/", controllers.SessionDelete(deps.Sessions, logg))
				r.Post("/refresh", controllers.SessionRefresh(deps.Sessions, deps.Shopping, logg))

				r.Get("/listings", controllers.ListingsList(deps.Sessions, logg))
				r.Get("/overview", controllers.ListingsOverview(deps.Sessions, logg))
				r.Get("/brands", controllers.ListingsBrands(deps.Sessions, logg))
				r.Get("/brands/share", controllers.ListingsBrandShare(deps.Sessions, logg))
				r.Get("/reviews", controllers.ListingsReviews(deps.Sessions, logg))
				r.Get("/recommendations", controllers.ListingsRecommendations(deps.Sessions, logg))
				r.Get("/products/{productId}", controllers.ListingsProduct(deps.Sessions, logg))

				r.With(middleware.ChatRateLimit(deps.RateLimiter, cfg.ChatRateLimit, logg)).
					Post("/chat", controllers.SessionChat(deps.Sessions, deps.Agent, logg))
			})
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Post("/detect", controllers.PromotionsDetect(logg))
			r.Get("/{asin}", controllers.PromotionsAnalyze(deps.Promotions, logg))
		})
	})

	return r
}
