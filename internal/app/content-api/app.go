// Package contentapi собирает и запускает основной HTTP-сервис:
// хранилище, кэш, брокер уведомлений, платёжный провайдер, бизнес-сервисы
// и маршруты API.
package contentapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/cache"
	"github.com/faithbyexperiments/content-api/internal/config"
	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/migrations"
	"github.com/faithbyexperiments/content-api/internal/paymentprovider"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
	authservice "github.com/faithbyexperiments/content-api/internal/services/auth"
	billingservice "github.com/faithbyexperiments/content-api/internal/services/billing"
	expiryservice "github.com/faithbyexperiments/content-api/internal/services/expiry"
	resetservice "github.com/faithbyexperiments/content-api/internal/services/passwordreset"
	postservice "github.com/faithbyexperiments/content-api/internal/services/posts"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
	expiry *expiryservice.ExpiryService
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	// Кэш публикаций не обязателен: без Redis все чтения идут в базу.
	var postCache postservice.Cache
	if cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection); err != nil {
		logger.Warn("cache unavailable, continuing without it", sl.Err(err))
	} else {
		postCache = cacheRedis
	}

	// Брокер уведомлений не обязателен для работы API: уведомления
	// отправляются по принципу fire-and-forget.
	var conn *amqp.Connection
	var ch *amqp.Channel
	if cfg.RabbitMQURL != "" {
		conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			logger.Warn("notifications broker unavailable, continuing without it", sl.Err(err))
		} else {
			ch, err = rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
			if err != nil {
				logger.Warn("failed to setup notifications channel", sl.Err(err))
				_ = conn.Close()
				conn = nil
			}
		}
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	provider := paymentprovider.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	authService := authservice.NewAuthService(db, jwtMaker, cfg.OperatorEmail)
	billingService := billingservice.NewBillingService(logger, db, db, provider, jwtMaker, ch, cfg.OperatorEmail)
	postService := postservice.NewPostService(logger, db, postCache)
	resetService := resetservice.NewResetService(logger, db, db, ch, cfg.SMTPHost != "")
	expiryService := expiryservice.NewExpiryService(logger, db, ch)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, Services{
		Auth:    authService,
		Billing: billingService,
		Posts:   postService,
		Reset:   resetService,
		Expiry:  expiryService,
		Users:   db,
		AmqpCh:  ch,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
		expiry: expiryService,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	go a.expiry.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.ch != nil {
			_ = a.ch.Close()
		}
		if a.conn != nil {
			_ = a.conn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
