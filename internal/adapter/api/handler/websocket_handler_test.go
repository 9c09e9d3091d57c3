package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "hitrank/internal/infrastructure/websocket"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://hitrank.app"}, "", true},
		{"listed origin", []string{"https://hitrank.app"}, "https://hitrank.app", true},
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"unlisted origin", []string{"https://hitrank.app"}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(req))
		})
	}
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	h := NewWebSocketHandler(ws.NewManager(), []string{"*"})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/ws", nil), rec)

	require.NoError(t, h.HandleWebSocket(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
