// Package users реализует чтение и сопровождение учётных записей.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/user-manager/internal/lib/sl"
	"github.com/magabrotheeeer/user-manager/internal/models"
	"github.com/magabrotheeeer/user-manager/internal/storage"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100

	defaultStoreTimeout = 3 * time.Second
	defaultCacheTTL     = 10 * time.Minute
)

// UserRepository описывает операции хранилища над пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, userUID, name, email string) (*models.User, error)
	DeleteUser(ctx context.Context, userUID string) error
}

// Cache описывает кэш публичных профилей. Invalidate обязан увеличивать
// поколение ключа, а SetIfGeneration писать только при совпадении поколения.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Generation(ctx context.Context, key string) (int64, error)
	SetIfGeneration(ctx context.Context, key string, value any, expiration time.Duration, gen int64) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует события жизненного цикла пользователя.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Config задаёт ограничения сервиса.
type Config struct {
	StoreTimeout time.Duration
	CacheTTL     time.Duration
}

// UserService управляет существующими учётными записями.
type UserService struct {
	repo      UserRepository
	cache     Cache
	publisher EventPublisher
	log       *slog.Logger
	cfg       Config
	now       func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, publisher EventPublisher, log *slog.Logger, cfg Config) *UserService {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &UserService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// NormalizePage приводит параметры пагинации к допустимым значениям.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List возвращает страницу пользователей в порядке регистрации.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
	const op = "users.List"

	limit, offset = NormalizePage(limit, offset)

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	list, err := s.repo.ListUsers(sctx, limit, offset)
	if err != nil {
		return nil, storeError(op, err)
	}

	res := make([]*models.PublicUser, 0, len(list))
	for _, u := range list {
		res = append(res, u.Public())
	}
	return res, nil
}

// Get возвращает публичный профиль пользователя, сначала проверяя кэш.
func (s *UserService) Get(ctx context.Context, userUID string) (*models.PublicUser, error) {
	const op = "users.Get"

	key := cacheKey(userUID)
	var cached models.PublicUser
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	// Поколение фиксируется до чтения строки: Update или Delete, завершившиеся
	// между чтением и записью в кэш, сдвинут его, и запись будет отменена.
	gen, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		s.log.Warn("cache generation read failed", slog.String("key", key), sl.Err(genErr))
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	user, err := s.repo.GetUser(sctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, storeError(op, err)
	}

	public := user.Public()
	if genErr != nil {
		return public, nil
	}
	stored, err := s.cache.SetIfGeneration(ctx, key, public, s.cfg.CacheTTL, gen)
	if err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), sl.Err(err))
	} else if !stored {
		s.log.Debug("cache write skipped: key invalidated concurrently", slog.String("key", key))
	}
	return public, nil
}

// Update меняет имя и email пользователя.
func (s *UserService) Update(ctx context.Context, userUID, name, email string) (*models.PublicUser, error) {
	const op = "users.Update"

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%s: %w: name and email are required", op, models.ErrValidation)
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	user, err := s.repo.UpdateUser(sctx, userUID, name, email)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		case errors.Is(err, storage.ErrUserExists):
			return nil, fmt.Errorf("%s: %w", op, models.ErrEmailAlreadyUsed)
		}
		return nil, storeError(op, err)
	}

	s.invalidate(ctx, userUID)
	s.publish(ctx, models.UserEvent{
		Type:       models.EventUserUpdated,
		UserUID:    user.UUID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return user.Public(), nil
}

// Delete удаляет пользователя.
func (s *UserService) Delete(ctx context.Context, userUID string) error {
	const op = "users.Delete"

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.repo.DeleteUser(sctx, userUID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return storeError(op, err)
	}

	s.invalidate(ctx, userUID)
	s.publish(ctx, models.UserEvent{
		Type:       models.EventUserDeleted,
		UserUID:    userUID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *UserService) invalidate(ctx context.Context, userUID string) {
	key := cacheKey(userUID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("key", key), sl.Err(err))
	}
}

func (s *UserService) publish(ctx context.Context, event models.UserEvent) {
	if err := s.publisher.Publish(ctx, event.Type, event); err != nil {
		s.log.Warn("failed to publish user event",
			slog.String("type", event.Type),
			slog.String("user_uid", event.UserUID),
			sl.Err(err),
		)
	}
}

func cacheKey(userUID string) string {
	return "user:" + userUID
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
}
