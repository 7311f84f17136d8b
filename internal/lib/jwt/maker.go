// Package jwt реализует выпуск и проверку JWT токенов сессии.
//
// Токен подписывается HS256 и несёт идентификатор пользователя (sub),
// время выпуска (iat) и время истечения (exp). Состояние на сервере не хранится.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken возвращается при любой ошибке проверки токена:
// неверная подпись, повреждённая структура, истёкший срок.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с идентификатором subject.
	GenerateToken(subject string) (string, error)
	// ParseToken проверяет токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
	// TTL возвращает время жизни выпускаемых токенов.
	TTL() time.Duration
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник текущего времени.
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник текущего времени, используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) {
		m.now = now
	}
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
//
// Пустой ключ недопустим: значения по умолчанию для секрета нет.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) (*MakerImpl, error) {
	if secretKey == "" {
		return nil, errors.New("jwt.NewJWTMaker: secret key is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt.NewJWTMaker: token ttl must be positive")
	}
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
