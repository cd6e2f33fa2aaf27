// Здесь регистрируются все маршруты HTTP API биллингового ядра.
package billingcore

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/billing-core/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/finance/comparison"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/finance/summary"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/finance/transactions"
	paymentfail "github.com/magabrotheeeer/billing-core/internal/http/handlers/payment/fail"
	paymentlist "github.com/magabrotheeeer/billing-core/internal/http/handlers/payment/list"
	paymentrecord "github.com/magabrotheeeer/billing-core/internal/http/handlers/payment/record"
	paymentrefund "github.com/magabrotheeeer/billing-core/internal/http/handlers/payment/refund"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/availableclients"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/changeplan"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/reactivate"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/statistics"
	"github.com/magabrotheeeer/billing-core/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/billing-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/billing-core/internal/models"
	authservice "github.com/magabrotheeeer/billing-core/internal/services/auth"
	financeservice "github.com/magabrotheeeer/billing-core/internal/services/finance"
	paymentservice "github.com/magabrotheeeer/billing-core/internal/services/payment"
	subscriptionservice "github.com/magabrotheeeer/billing-core/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// Чтение доступно любой аутентифицированной роли, изменяющие операции
// требуют роли admin или manager, безвозвратное удаление — только admin.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	authService *authservice.Service,
	subscriptionService *subscriptionservice.Service,
	paymentService *paymentservice.Service,
	financeService *financeservice.Service,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/statistics", statistics.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}/payments", paymentlist.New(logger, paymentService).ServeHTTP)
			r.Get("/projects/{id}/available-clients", availableclients.New(logger, subscriptionService).ServeHTTP)

			r.Get("/finance/summary", summary.New(logger, financeService).ServeHTTP)
			r.Get("/finance/transactions", transactions.New(logger, financeService).ServeHTTP)
			r.Get("/finance/comparison", comparison.New(logger, financeService).ServeHTTP)

			// Изменяющие операции
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleManager))

				r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
				r.Put("/subscriptions/{id}", update.New(logger, subscriptionService).ServeHTTP)
				r.Post("/subscriptions/{id}/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
				r.Post("/subscriptions/{id}/reactivate", reactivate.New(logger, subscriptionService).ServeHTTP)
				r.Put("/subscriptions/{id}/plan", changeplan.New(logger, subscriptionService).ServeHTTP)

				r.Post("/subscriptions/{id}/payments", paymentrecord.New(logger, paymentService).ServeHTTP)
				r.Post("/subscriptions/{id}/payments/fail", paymentfail.New(logger, paymentService).ServeHTTP)
				r.Post("/payments/{id}/refund", paymentrefund.New(logger, paymentService).ServeHTTP)
			})

			// Безвозвратное удаление вместе с платёжным журналом
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Delete("/subscriptions/{id}", remove.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
