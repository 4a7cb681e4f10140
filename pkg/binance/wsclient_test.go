package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// go test -v --run TestWSClientSubscribeAndListen
func TestWSClientSubscribeAndListen(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan SubscribeRequest, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"e":"24hrMiniTicker","s":"BTCUSDT","c":"1"}`))
		// Hold the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewWSClient(wsURL, []string{"btcusdt@miniTicker"}, zap.NewNop())

	received := make(chan []byte, 1)
	client.SetMessageHandler(func(msg []byte) { received <- msg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, client.Connect(ctx))

	done := make(chan struct{})
	go func() {
		client.Listen(ctx)
		close(done)
	}()

	select {
	case req := <-subscribed:
		assert.Equal(t, "SUBSCRIBE", req.Method)
		assert.Equal(t, []string{"btcusdt@miniTicker"}, req.Params)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not received")
	}

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), "BTCUSDT")
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered to handler")
	}

	cancel()
	require.NoError(t, client.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
