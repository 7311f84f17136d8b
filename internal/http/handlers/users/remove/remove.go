// Package remove реализует HTTP-обработчик удаления пользователя.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики удаления.
type Service interface {
	Delete(ctx context.Context, userUID string) error
}

// Handler обрабатывает запросы на удаление пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление пользователя
// @Tags Users
// @Produce  json
// @Param id path string true "UUID пользователя"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Info("failed to decode id from url", sl.Err(err))
		response.Render(w, r, http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	if err := h.service.Delete(r.Context(), id.String()); err != nil {
		log.Error("failed to remove user", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeDefault)
		return
	}

	log.Info("user removed", slog.String("user_uid", id.String()))
	response.Render(w, r, http.StatusOK, response.OKWithData(map[string]any{
		"deleted_id": id.String(),
	}))
}
