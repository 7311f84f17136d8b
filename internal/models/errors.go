package models

import "errors"

// Ошибки бизнес-уровня. Обработчики HTTP сопоставляют их с кодами ответа.
var (
	ErrValidation         = errors.New("validation error")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreUnavailable   = errors.New("store unavailable")
)
