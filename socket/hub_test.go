package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postserver/internal/post/model"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readEvent(t *testing.T, conn *websocket.Conn) model.PostEvent {
	t.Helper()
	var event model.PostEvent
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	require.NoError(t, json.Unmarshal(p, &event), "Failed to unmarshal PostEvent JSON")
	return event
}

func startHub(t *testing.T) (*Hub, string, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	upgrader := NewUpgrader([]string{"http://localhost:8080"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, upgrader, w, r)
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http"), cancel
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	hub, wsURL, _ := startHub(t)

	// 1. Two clients connect.
	conn1, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "Client 1 failed to connect")
	defer conn1.Close()
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "Client 2 failed to connect")
	defer conn2.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	// 2. An update is published and both receive it.
	event := model.PostEvent{Type: model.EventUpdated, PostID: 4, Content: "edited"}
	require.NoError(t, hub.Publish(context.Background(), event))

	assert.Equal(t, event, readEvent(t, conn1))
	assert.Equal(t, event, readEvent(t, conn2))
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, wsURL, _ := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubStopClosesClients(t *testing.T) {
	hub, wsURL, cancel := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "connection should be closed by the hub")

	// Once stopped, publishing fails instead of blocking forever.
	assert.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := hub.Publish(ctx, model.PostEvent{Type: model.EventDeleted, PostID: 1})
		return err != nil
	}, time.Second, 20*time.Millisecond)
}

func TestUpgraderOrigins(t *testing.T) {
	upgrader := NewUpgrader([]string{"http://localhost:8080"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:8080", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, upgrader.CheckOrigin(r), "origin %q", tt.origin)
	}
}
