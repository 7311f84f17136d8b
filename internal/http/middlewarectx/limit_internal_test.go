package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(0.001, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("198.51.100.7"))
	assert.False(t, l.allow("198.51.100.7"))
	assert.True(t, l.allow("203.0.113.9"))
	assert.Equal(t, 2, l.size())

	now = now.Add(5 * time.Minute)
	assert.False(t, l.allow("203.0.113.9"))

	// первый клиент простаивал дольше clientIdleTTL, второй нет
	now = now.Add(clientIdleTTL - time.Minute)
	assert.False(t, l.allow("203.0.113.9"))
	assert.Equal(t, 1, l.size())

	// удалённый клиент получает новую корзину
	assert.True(t, l.allow("198.51.100.7"))
	assert.Equal(t, 2, l.size())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{name: "ipv4 с портом", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "ipv6 с портом", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "без порта после RealIP", remoteAddr: "192.0.2.5", want: "192.0.2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}
