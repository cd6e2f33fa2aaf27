// Package billingcore собирает и запускает HTTP-приложение биллингового ядра.
package billingcore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/billing-core/internal/cache"
	"github.com/magabrotheeeer/billing-core/internal/config"
	"github.com/magabrotheeeer/billing-core/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-core/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/billing-core/internal/migrations"
	authservice "github.com/magabrotheeeer/billing-core/internal/services/auth"
	financeservice "github.com/magabrotheeeer/billing-core/internal/services/finance"
	paymentservice "github.com/magabrotheeeer/billing-core/internal/services/payment"
	subscriptionservice "github.com/magabrotheeeer/billing-core/internal/services/subscription"
	"github.com/magabrotheeeer/billing-core/internal/storage/repository"
)

// App держит HTTP-сервер и подключения, которые нужно закрыть при остановке.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New собирает приложение: хранилище, миграции, кэш, брокер событий,
// сервисы и маршруты HTTP.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitConnection.URL, 5, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetBillingQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	subscriptionService := subscriptionservice.New(db, cacheRedis, publisher, logger)
	paymentService := paymentservice.New(db, cacheRedis, publisher, logger)
	financeService := financeservice.New(db, logger)
	authService := authservice.New(db, jwtMaker, cacheRedis)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, subscriptionService, paymentService, financeService)

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
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
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
		a.db.DB.Close()
		return err
	}
}
