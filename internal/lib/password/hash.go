// Package password реализует функции для безопасного хеширования и проверки паролей.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// Verify и CompareHash сравнивают сохранённый bcrypt-хеш с введённым паролем.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost - фактор сложности bcrypt (2^10 раундов).
const Cost = 10

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
//
// Соль генерируется на каждый вызов, поэтому один и тот же пароль
// даёт разные хэши.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе - ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Verify сообщает, соответствует ли пароль хэшу.
// Повреждённый или пустой хэш даёт false.
func Verify(originalHash, externalPassword string) bool {
	return CompareHash(originalHash, externalPassword) == nil
}
