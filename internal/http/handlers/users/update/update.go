// Package update реализует HTTP-обработчик изменения имени и email пользователя.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

// Request - новые значения полей пользователя.
type Request struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// Service описывает интерфейс бизнес-логики обновления.
type Service interface {
	Update(ctx context.Context, userUID, name, email string) (*models.PublicUser, error)
}

// Handler обрабатывает запросы на обновление пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление пользователя
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path string true "UUID пользователя"
// @Param request body Request true "Новые данные"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 413 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

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

	var req Request
	r.Body = http.MaxBytesReader(w, r.Body, response.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("request body too large", slog.Int64("limit", tooLarge.Limit))
			response.Render(w, r, http.StatusRequestEntityTooLarge, response.Error("request body too large"))
			return
		}
		log.Error("failed to decode request body", sl.Err(err))
		response.Render(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			response.Render(w, r, http.StatusBadRequest, response.ValidationError(verrs))
			return
		}
		log.Error("validation failed", sl.Err(err))
		response.Render(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}

	res, err := h.service.Update(r.Context(), id.String(), req.Name, req.Email)
	if err != nil {
		log.Error("failed to update user", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeUpdate)
		return
	}

	log.Info("user updated", slog.String("user_uid", res.ID))
	response.Render(w, r, http.StatusOK, response.OKWithData(res))
}
