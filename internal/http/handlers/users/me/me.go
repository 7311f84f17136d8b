// Package me возвращает профиль владельца токена.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/user-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

// Service описывает чтение профиля пользователя.
type Service interface {
	Get(ctx context.Context, userUID string) (*models.PublicUser, error)
}

// Handler отдаёт профиль пользователя из токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Users
// @Produce  json
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.Render(w, r, http.StatusUnauthorized, response.Error(middlewarectx.MsgMissingToken))
		return
	}

	res, err := h.service.Get(r.Context(), userUID)
	if err != nil {
		log.Error("failed to read current user", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeDefault)
		return
	}

	response.Render(w, r, http.StatusOK, response.OKWithData(res))
}
