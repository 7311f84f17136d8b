// Package auth содержит бизнес-логику регистрации, входа и проверки токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/user-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/user-manager/internal/lib/password"
	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
	"github.com/magabrotheeeer/user-manager/internal/storage"
)

const (
	opRegister = "register"
	opLogin    = "login"

	defaultStoreTimeout = 3 * time.Second
)

// UserRepository описывает контракт хранилища учётных данных.
type UserRepository interface {
	// CreateUser сохраняет пользователя; при занятом email возвращает storage.ErrUserExists.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail ищет пользователя по email; при отсутствии возвращает storage.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// EventPublisher публикует события жизненного цикла пользователя.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Observer получает результат каждой попытки регистрации и входа.
type Observer interface {
	ObserveAuth(operation string, err error)
}

// LoginResult - результат успешного входа.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.PublicUser
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users        UserRepository
	jwtMaker     jwt.Maker
	log          *slog.Logger
	publisher    EventPublisher
	observer     Observer
	storeTimeout time.Duration
	now          func() time.Time
}

// Option настраивает AuthService.
type Option func(*AuthService)

// WithPublisher задаёт публикатор событий.
func WithPublisher(p EventPublisher) Option {
	return func(s *AuthService) { s.publisher = p }
}

// WithObserver задаёт получателя метрик.
func WithObserver(o Observer) Option {
	return func(s *AuthService) { s.observer = o }
}

// WithStoreTimeout ограничивает время одного обращения к хранилищу.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		users:        users,
		jwtMaker:     jwtMaker,
		log:          log,
		publisher:    nopPublisher{},
		observer:     nopObserver{},
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создает нового пользователя с хэшированием пароля.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (_ *models.PublicUser, err error) {
	const op = "auth.Register"
	defer func() { s.observer.ObserveAuth(opRegister, err) }()

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || rawPassword == "" {
		return nil, fmt.Errorf("%s: %w: name, email and password are required", op, models.ErrValidation)
	}

	if _, err = s.lookup(ctx, email); err == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrEmailAlreadyUsed)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, storeError(op, err)
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	created, err := s.users.CreateUser(sctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		// конкурентная регистрация с тем же email отсекается ограничением БД
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrEmailAlreadyUsed)
		}
		return nil, storeError(op, err)
	}

	s.log.Info("user registered", slog.String("user_uid", created.UUID))
	s.publish(ctx, models.UserEvent{
		Type:       models.EventUserRegistered,
		UserUID:    created.UUID,
		Email:      created.Email,
		OccurredAt: s.now().UTC(),
	})

	return created.Public(), nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (_ *LoginResult, err error) {
	const op = "auth.Login"
	defer func() { s.observer.ObserveAuth(opLogin, err) }()

	email = strings.TrimSpace(email)
	if email == "" || rawPassword == "" {
		return nil, fmt.Errorf("%s: %w: email and password are required", op, models.ErrValidation)
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// выравниваем время ответа с веткой неверного пароля
			password.Verify(dummyHash(), rawPassword)
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, storeError(op, err)
	}

	if !password.Verify(user.PasswordHash, rawPassword) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	issuedAt := s.now()
	token, err := s.jwtMaker.GenerateToken(user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("user_uid", user.UUID))
	return &LoginResult{
		Token:     token,
		ExpiresAt: issuedAt.Add(s.jwtMaker.TTL()).UTC(),
		User:      user.Public(),
	}, nil
}

// ValidateToken проверяет JWT и возвращает идентификатор пользователя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *AuthService) lookup(ctx context.Context, email string) (*models.User, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.users.GetUserByEmail(sctx, email)
}

func (s *AuthService) publish(ctx context.Context, event models.UserEvent) {
	if err := s.publisher.Publish(ctx, event.Type, event); err != nil {
		s.log.Warn("failed to publish user event",
			slog.String("type", event.Type),
			slog.String("user_uid", event.UserUID),
			sl.Err(err),
		)
	}
}

// storeError скрывает причину сбоя хранилища за ErrStoreUnavailable.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}

var dummyHash = sync.OnceValue(func() string {
	h, err := password.GetHash("timing-equalizer")
	if err != nil {
		return ""
	}
	return h
})

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveAuth(string, error) {}
