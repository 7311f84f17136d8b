// Package middlewarectx содержит HTTP middleware для проверки JWT и ограничения частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность токена в заголовке Authorization
// и в случае успеха кладёт идентификатор пользователя в контекст запроса.
// Хранилище при этом не используется.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserUID - ключ идентификатора пользователя в контексте.
const UserUID Key = "user_uid"

const (
	MsgMissingToken = "missing authorization token"
	MsgInvalidToken = "invalid or expired token"

	bearerPrefix = "Bearer "
)

// TokenValidator проверяет токен и возвращает его subject.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Info("missing authorization token")
				response.Render(w, r, http.StatusUnauthorized, response.Error(MsgMissingToken))
				return
			}

			subject, err := validator.ValidateToken(r.Context(), token)
			if err != nil || subject == "" {
				log.Info("invalid or expired token", sl.Err(err))
				response.Render(w, r, http.StatusUnauthorized, response.Error(MsgInvalidToken))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserUIDFromContext возвращает идентификатор пользователя, сохранённый JWTMiddleware.
func UserUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok && uid != ""
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}
