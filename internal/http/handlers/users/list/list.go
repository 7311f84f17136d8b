// Package list реализует HTTP-обработчик постраничного списка пользователей.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

// Service описывает интерфейс получения списка пользователей.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error)
}

// Handler обрабатывает запросы на получение списка пользователей.
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
// @Summary Список пользователей
// @Tags Users
// @Produce  json
// @Param limit query int false "Размер страницы (по умолчанию 50, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := queryInt(r, "limit")
	if err != nil {
		log.Info("invalid limit", sl.Err(err))
		response.Render(w, r, http.StatusBadRequest, response.Error("invalid limit"))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		log.Info("invalid offset", sl.Err(err))
		response.Render(w, r, http.StatusBadRequest, response.Error("invalid offset"))
		return
	}

	res, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeDefault)
		return
	}

	log.Info("success to list users", slog.Int("count", len(res)))
	response.Render(w, r, http.StatusOK, response.OKWithData(map[string]any{
		"count": len(res),
		"users": res,
	}))
}

// queryInt читает неотрицательный целый параметр; отсутствующий параметр равен нулю.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}
