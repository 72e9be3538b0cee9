package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bakehouse-labs/bakehouse-backend/api/controllers"
	"github.com/bakehouse-labs/bakehouse-backend/api/middleware"
	"github.com/bakehouse-labs/bakehouse-backend/internal/availability"
	"github.com/bakehouse-labs/bakehouse-backend/internal/branches"
	"github.com/bakehouse-labs/bakehouse-backend/internal/orders"
	"github.com/bakehouse-labs/bakehouse-backend/internal/promos"
	pkgauth "github.com/bakehouse-labs/bakehouse-backend/pkg/auth"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/config"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/redis"
)

// Services bundles everything the HTTP surface needs.
type Services struct {
	Orders       orders.Service
	Branches     branches.Service
	Promos       promos.Service
	Availability availability.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checks := map[string]controllers.Pinger{
		"db":    dbP,
		"redis": redisClient,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, checks))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/branches", controllers.ListBranches(svcs.Branches, logg))
			r.Post("/branches/availability", controllers.BranchAvailability(svcs.Orders, logg))
			r.Get("/availability/window", controllers.OrderingWindow(svcs.Availability, logg))

			r.Post("/pricing/quote", controllers.Quote(svcs.Orders, logg))
			r.Post("/promos/validate", controllers.ValidatePromo(svcs.Promos, logg))
			r.Post("/checkout", controllers.Checkout(svcs.Orders, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(pkgauth.RoleOperator, logg))
			r.Put("/availability/window", controllers.RescheduleWindow(svcs.Availability, logg))
		})
	})

	return r
}
