package me

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/user-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, userUID string) (*models.PublicUser, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicUser), args.Error(1)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("subject from context", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Get", mock.Anything, "uid-1").Return(&models.PublicUser{ID: "uid-1", Name: "Ana"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"uid-1"`)
		svc.AssertExpectations(t)
	})

	t.Run("no subject", func(t *testing.T) {
		svc := new(MockService)
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("deleted user", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Get", mock.Anything, "uid-1").Return(nil, models.ErrUserNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
