// Package contentapi предоставляет маршруты для основного приложения.
package contentapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/faithbyexperiments/content-api/internal/config"
	authcheckuser "github.com/faithbyexperiments/content-api/internal/http/handlers/auth/checkuser"
	authlogin "github.com/faithbyexperiments/content-api/internal/http/handlers/auth/login"
	authme "github.com/faithbyexperiments/content-api/internal/http/handlers/auth/me"
	authsignup "github.com/faithbyexperiments/content-api/internal/http/handlers/auth/signup"
	authsubscribe "github.com/faithbyexperiments/content-api/internal/http/handlers/auth/subscribe"
	contactsend "github.com/faithbyexperiments/content-api/internal/http/handlers/contact/send"
	expirycheck "github.com/faithbyexperiments/content-api/internal/http/handlers/expiry/check"
	expirytrigger "github.com/faithbyexperiments/content-api/internal/http/handlers/expiry/trigger"
	"github.com/faithbyexperiments/content-api/internal/http/handlers/health"
	paymentconfig "github.com/faithbyexperiments/content-api/internal/http/handlers/payment/config"
	paymentcreate "github.com/faithbyexperiments/content-api/internal/http/handlers/payment/create"
	paymentorders "github.com/faithbyexperiments/content-api/internal/http/handlers/payment/orders"
	paymentpendingsignup "github.com/faithbyexperiments/content-api/internal/http/handlers/payment/pendingsignup"
	paymentverify "github.com/faithbyexperiments/content-api/internal/http/handlers/payment/verify"
	resetconfirm "github.com/faithbyexperiments/content-api/internal/http/handlers/passwordreset/confirm"
	resetrequest "github.com/faithbyexperiments/content-api/internal/http/handlers/passwordreset/request"
	resetvalidate "github.com/faithbyexperiments/content-api/internal/http/handlers/passwordreset/validate"
	postcreate "github.com/faithbyexperiments/content-api/internal/http/handlers/posts/create"
	postlist "github.com/faithbyexperiments/content-api/internal/http/handlers/posts/list"
	postread "github.com/faithbyexperiments/content-api/internal/http/handlers/posts/read"
	postremove "github.com/faithbyexperiments/content-api/internal/http/handlers/posts/remove"
	postupdate "github.com/faithbyexperiments/content-api/internal/http/handlers/posts/update"
	"github.com/faithbyexperiments/content-api/internal/http/middlewarectx"
	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	authservice "github.com/faithbyexperiments/content-api/internal/services/auth"
	billingservice "github.com/faithbyexperiments/content-api/internal/services/billing"
	expiryservice "github.com/faithbyexperiments/content-api/internal/services/expiry"
	resetservice "github.com/faithbyexperiments/content-api/internal/services/passwordreset"
	postservice "github.com/faithbyexperiments/content-api/internal/services/posts"
)

// Services собирает бизнес-сервисы, нужные маршрутам приложения.
type Services struct {
	Auth    *authservice.AuthService
	Billing *billingservice.BillingService
	Posts   *postservice.PostService
	Reset   *resetservice.ResetService
	Expiry  *expiryservice.ExpiryService
	Users   middlewarectx.UserLoader
	AmqpCh  *amqp.Channel
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, jwtMaker jwt.Maker, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		// Открытые конечные точки
		r.Post("/auth/signup", authsignup.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", authlogin.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/check-user", authcheckuser.New(logger, s.Auth).ServeHTTP)
		r.Post("/contact", contactsend.New(logger, s.AmqpCh).ServeHTTP)
		r.Post("/password-reset/request", resetrequest.New(logger, s.Reset).ServeHTTP)
		r.Post("/password-reset/confirm", resetconfirm.New(logger, s.Reset).ServeHTTP)
		r.Post("/password-reset/validate", resetvalidate.New(logger, s.Reset).ServeHTTP)
		r.Get("/payments/config", paymentconfig.New(logger, cfg.RazorpayKeyID, cfg.PaymentsConfigured()).ServeHTTP)

		// Чтение публикаций: авторизация необязательна, подписчик
		// получает полный текст премиум-публикаций
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(jwtMaker, logger))
			r.Get("/posts", postlist.New(logger, s.Posts, s.Users).ServeHTTP)
			r.Get("/posts/{id}", postread.New(logger, s.Posts, s.Users).ServeHTTP)
		})

		// Сверка оплаты: ордер отложенной регистрации подтверждается
		// анонимно, ордер существующего пользователя — с токеном
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(jwtMaker, logger))
			r.Use(paymentsEnabled(cfg, logger))
			r.Post("/payments/verify", paymentverify.New(logger, s.Billing).ServeHTTP)
		})
		r.Group(func(r chi.Router) {
			r.Use(paymentsEnabled(cfg, logger))
			r.Post("/payments/create-order-signup", paymentpendingsignup.New(logger, s.Billing).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/auth/me", authme.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/subscribe", authsubscribe.New(logger, s.Auth).ServeHTTP)
			r.Get("/payments/orders", paymentorders.New(logger, s.Billing).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(paymentsEnabled(cfg, logger))
				r.Post("/payments/create-order", paymentcreate.New(logger, s.Billing).ServeHTTP)
			})

			// Администрирование
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(s.Users, logger))
				r.Post("/posts", postcreate.New(logger, s.Posts).ServeHTTP)
				r.Put("/posts/{id}", postupdate.New(logger, s.Posts).ServeHTTP)
				r.Delete("/posts/{id}", postremove.New(logger, s.Posts).ServeHTTP)
				r.Post("/subscriptions/check-expiry", expirytrigger.New(logger, s.Expiry).ServeHTTP)
				r.Get("/subscriptions/check-expiry-sync", expirycheck.New(logger, s.Expiry).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// paymentsEnabled отвечает 503 на платёжные эндпоинты, если ключи
// провайдера не сконфигурированы.
func paymentsEnabled(cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.PaymentsConfigured() {
				logger.Warn("payments are not configured", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("payments are not configured"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
