package response

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/user-manager/internal/models"
)

// Scope уточняет, в каком обработчике произошла ошибка.
type Scope int

const (
	ScopeDefault Scope = iota
	ScopeRegister
	ScopeLogin
	ScopeUpdate
)

const (
	MsgInvalidCredentials = "invalid email or password"
	MsgInternal           = "internal error"
	MsgStoreUnavailable   = "service temporarily unavailable"
)

// FromError сопоставляет ошибку сервиса с HTTP-статусом и текстом для клиента.
// Причины сбоев хранилища клиенту не раскрываются.
func FromError(err error, scope Scope) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, models.ErrValidation.Error()
	case errors.Is(err, models.ErrEmailAlreadyUsed):
		if scope == ScopeUpdate {
			return http.StatusConflict, models.ErrEmailAlreadyUsed.Error()
		}
		return http.StatusBadRequest, models.ErrEmailAlreadyUsed.Error()
	case scope == ScopeLogin &&
		(errors.Is(err, models.ErrUserNotFound) || errors.Is(err, models.ErrInvalidCredentials)):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, models.ErrUserNotFound.Error()
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, MsgStoreUnavailable
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// RenderError записывает ответ для ошибки сервиса.
func RenderError(w http.ResponseWriter, r *http.Request, err error, scope Scope) {
	status, msg := FromError(err, scope)
	Render(w, r, status, Error(msg))
}
