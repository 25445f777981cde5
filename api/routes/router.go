package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nguyenhuy-dev/storelane-backend/api/controllers"
	"github.com/nguyenhuy-dev/storelane-backend/api/middleware"
	"github.com/nguyenhuy-dev/storelane-backend/internal/cart"
	"github.com/nguyenhuy-dev/storelane-backend/internal/discounts"
	"github.com/nguyenhuy-dev/storelane-backend/internal/flashsale"
	"github.com/nguyenhuy-dev/storelane-backend/internal/orders"
	"github.com/nguyenhuy-dev/storelane-backend/internal/payments"
	"github.com/nguyenhuy-dev/storelane-backend/internal/scheduler"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	cartService cart.Service,
	discountService discounts.Service,
	orderService orders.Service,
	flashSaleService flashsale.Service,
	schedulerService scheduler.Service,
	paymentVerifier payments.Verifier,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/shipping", controllers.ShippingWebhook(cfg.Shipping, orderService, logg))
		r.Get("/payment", controllers.PaymentReturn(paymentVerifier, orderService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(cartService, logg))
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/items", controllers.CartClear(cartService, logg))
		})

		r.Post("/discounts/apply", controllers.DiscountApply(discountService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(orderService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Patch("/orders/{orderId}/status", controllers.AdminOrderUpdateStatus(orderService, logg))
		r.Post("/discounts", controllers.AdminDiscountCreate(discountService, logg))

		r.Route("/flash-sales", func(r chi.Router) {
			r.Post("/", controllers.AdminCampaignCreate(flashSaleService, logg))
			r.Post("/{campaignId}/items", controllers.AdminCampaignAddItem(flashSaleService, logg))
			r.Post("/{campaignId}/schedule", controllers.AdminCampaignSchedule(schedulerService, logg))
			r.Delete("/jobs/{jobId}", controllers.AdminJobCancel(schedulerService, logg))
		})
	})

	return r
}
