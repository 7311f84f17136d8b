// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

// Request - входные данные для регистрации
type Request struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*models.PublicUser, error)
}

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя с хэшированным паролем.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} models.PublicUser "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или email уже занят"
// @Failure 413 {object} response.ErrorResponse "Слишком большое тело запроса"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeRegister)
		return
	}

	log.Info("user registered", slog.String("user_uid", user.ID))
	response.Render(w, r, http.StatusCreated, response.OKWithData(user))
}
