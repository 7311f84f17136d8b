// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и даты создания/изменения.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Name         string    // Отображаемое имя
	Email        string    // Электронная почта (уникальная, с учётом регистра)
	PasswordHash string    // bcrypt-хэш пароля, наружу не отдаётся
	CreatedAt    time.Time // Дата регистрации
	UpdatedAt    time.Time // Дата последнего изменения профиля
}

// PublicUser - проекция пользователя без хэша пароля.
// Только эта структура сериализуется в ответы, кэш и события.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Public возвращает публичное представление пользователя.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.UUID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
