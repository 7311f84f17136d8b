package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-manager/internal/http/response"
	"github.com/magabrotheeeer/user-manager/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, name, email, password string) (*models.PublicUser, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicUser), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	created := &models.PublicUser{
		ID:        "3f1c1d2e-8a47-4f61-9d6c-0c1f5d1f2a10",
		Name:      "Ana",
		Email:     "ana@x.com",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:        "valid registration",
			requestBody: Request{Name: "Ana", Email: "ana@x.com", Password: "secret123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "Ana", "ana@x.com", "secret123").Return(created, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantData: map[string]any{
				"id":    created.ID,
				"name":  "Ana",
				"email": "ana@x.com",
			},
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			setupMock:      func(m *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "body over size limit",
			requestBody:    Request{Name: strings.Repeat("a", response.MaxBodyBytes), Email: "ana@x.com", Password: "secret123"},
			setupMock:      func(m *ServiceMock) {},
			wantStatusCode: http.StatusRequestEntityTooLarge,
			wantError:      "request body too large",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Name: "Ana", Email: "ana@x.com"},
			setupMock:      func(m *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - malformed email",
			requestBody:    Request{Name: "Ana", Email: "ana", Password: "secret123"},
			setupMock:      func(m *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
			wantStatus:     "Error",
		},
		{
			name:        "email already used",
			requestBody: Request{Name: "Ana", Email: "ana@x.com", Password: "secret123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "Ana", "ana@x.com", "secret123").
					Return(nil, models.ErrEmailAlreadyUsed).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email already used",
			wantStatus:     "Error",
		},
		{
			name:        "store unavailable",
			requestBody: Request{Name: "Ana", Email: "ana@x.com", Password: "secret123"},
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "Ana", "ana@x.com", "secret123").
					Return(nil, errors.Join(models.ErrStoreUnavailable, errors.New("pq: connection refused"))).Once()
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      "service temporarily unavailable",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
				assert.NotContains(t, data, "password")
				assert.NotContains(t, data, "password_hash")
			} else {
				assert.Nil(t, got["data"])
			}

			svc.AssertExpectations(t)
		})
	}
}
