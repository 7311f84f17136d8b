// Package usermanager собирает HTTP-приложение сервиса пользователей.
package usermanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/user-manager/internal/config"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/users/me"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/user-manager/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/user-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-manager/internal/lib/metrics"
)

// AuthService объединяет операции, нужные открытым маршрутам и JWT middleware.
type AuthService interface {
	register.Service
	login.Service
	middlewarectx.TokenValidator
}

// UserService объединяет операции защищённых маршрутов.
type UserService interface {
	list.Service
	read.Service
	update.Service
	remove.Service
}

// Deps - зависимости маршрутизатора.
type Deps struct {
	Logger    *slog.Logger
	Auth      AuthService
	Users     UserService
	DB        health.Pinger
	Metrics   *metrics.Metrics
	RateLimit config.RateLimit
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
	)

	registerHandler := register.New(d.Logger, d.Auth)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(d.Logger, d.RateLimit.RPS, d.RateLimit.Burst))
			r.Post("/auth/register", registerHandler.ServeHTTP)
			r.Post("/auth/login", login.New(d.Logger, d.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, d.Logger))
			r.Get("/me", me.New(d.Logger, d.Users).ServeHTTP)
			r.Get("/users", list.New(d.Logger, d.Users).ServeHTTP)
			r.Post("/users", registerHandler.ServeHTTP)
			r.Get("/users/{id}", read.New(d.Logger, d.Users).ServeHTTP)
			r.Put("/users/{id}", update.New(d.Logger, d.Users).ServeHTTP)
			r.Delete("/users/{id}", remove.New(d.Logger, d.Users).ServeHTTP)
		})
	})

	r.Get("/health", health.New(d.Logger, d.DB).ServeHTTP)
	r.Handle("/metrics", d.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
