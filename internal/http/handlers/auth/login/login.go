// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной аутентификации возвращается JSON с JWT и публичным профилем.
// Неизвестный email и неверный пароль неразличимы для клиента.
package login

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
	"github.com/magabrotheeeer/user-manager/internal/services/auth"
)

// Request - структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис аутентификации
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// New создает новый экземпляр Handler с указанными логгером и сервисом аутентификации.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} map[string]any "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 413 {object} response.ErrorResponse "Слишком большое тело запроса"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		response.RenderError(w, r, err, response.ScopeLogin)
		return
	}

	log.Info("login success", slog.String("user_uid", res.User.ID))
	response.Render(w, r, http.StatusOK, response.OKWithData(map[string]any{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	}))
}
