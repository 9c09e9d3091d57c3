package router

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitrank/internal/adapter/api/handler"
	"hitrank/internal/adapter/api/middleware"
	"hitrank/internal/domain/entity"
	ws "hitrank/internal/infrastructure/websocket"
)

func TestNotificationStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := ws.NewManager()
	manager.Start(ctx)

	e := echo.New()
	SetupWebSocketRouter(e,
		handler.NewWebSocketHandler(manager, []string{"*"}),
		middleware.NewAuthMiddleware(fakeVerifier{"alice-token": {UID: "alice"}}),
	)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?token=alice-token"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return manager.Connected("alice") == 1 }, time.Second, 10*time.Millisecond)

	manager.Notify(&entity.Notification{
		ID:          "n1",
		UserID:      "alice",
		Type:        entity.NotificationDethroneApproved,
		PinID:       "pin-1",
		ChallengeID: "c1",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string              `json:"type"`
		Data entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "c1", msg.Data.ChallengeID)

	_, _, err = gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws?token=bad", nil)
	assert.Error(t, err)
}

func TestNotificationStreamClosesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := ws.NewManager()
	manager.Start(ctx)

	e := echo.New()
	SetupWebSocketRouter(e,
		handler.NewWebSocketHandler(manager, []string{"*"}),
		middleware.NewAuthMiddleware(fakeVerifier{"alice-token": {UID: "alice"}}),
	)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?token=alice-token"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return manager.Connected("alice") == 1 }, time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *gorillaws.CloseError
	assert.ErrorAs(t, err, &closeErr)

	late, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()

	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, gorillaws.IsCloseError(err, gorillaws.CloseGoingAway), "got %v", err)
}
