package usermanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/user-manager/internal/cache"
	"github.com/magabrotheeeer/user-manager/internal/config"
	"github.com/magabrotheeeer/user-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/user-manager/internal/lib/metrics"
	"github.com/magabrotheeeer/user-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/migrations"
	authservice "github.com/magabrotheeeer/user-manager/internal/services/auth"
	userservice "github.com/magabrotheeeer/user-manager/internal/services/users"
	"github.com/magabrotheeeer/user-manager/internal/storage"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	closers []io.Closer
}

// New поднимает зависимости приложения и собирает HTTP-сервер.
// Redis и RabbitMQ подключаются только если заданы их адреса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	const op = "usermanager.New"

	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var userCache userservice.Cache = cache.Nop{}
	if cfg.RedisAddress != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisCache)
		userCache = redisCache
	} else {
		logger.Warn("redis address is empty, user cache disabled")
	}

	var publisher userservice.EventPublisher = rabbitmq.Discard{}
	if cfg.RabbitMQURL != "" {
		p, err := newPublisher(cfg.RabbitMQConnection, app)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = p
	} else {
		logger.Warn("rabbitmq url is empty, user events disabled")
	}

	jwtMaker, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New()

	authService := authservice.NewAuthService(db, jwtMaker, logger,
		authservice.WithPublisher(publisher),
		authservice.WithObserver(m),
		authservice.WithStoreTimeout(cfg.StorageTimeout),
	)
	userService := userservice.NewUserService(db, userCache, publisher, logger, userservice.Config{
		StoreTimeout: cfg.StorageTimeout,
		CacheTTL:     cfg.CacheTTL,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:    logger,
		Auth:      authService,
		Users:     userService,
		DB:        db,
		Metrics:   m,
		RateLimit: cfg.RateLimit,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func newPublisher(cfg config.RabbitMQConnection, app *App) (*rabbitmq.Publisher, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, conn)

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange)
	if err != nil {
		return nil, err
	}
	p := rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange)
	// канал закрывается раньше соединения
	app.closers = append(app.closers, p)
	return p, nil
}

// Run запускает HTTP-сервер и блокируется до отмены ctx или ошибки сервера.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close storage", sl.Err(err))
		}
		a.db = nil
	}
}
