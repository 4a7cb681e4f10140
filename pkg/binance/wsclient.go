package binance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const reconnectDelay = 3 * time.Second

// WSClient holds one connection to the Binance combined stream endpoint and
// routes every received frame to the message handler.
type WSClient struct {
	url     string
	streams []string
	handler func([]byte)
	logger  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a client for the given stream names, e.g. "btcusdt@miniTicker".
func NewWSClient(url string, streams []string, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:     url,
		streams: streams,
		logger:  logger.With(zap.String("component", "binance-ws")),
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// Connect dials the endpoint and subscribes to the configured streams.
// It does not start the listener.
func (c *WSClient) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Error("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		return err
	}

	if err := conn.WriteJSON(SubscribeRequest{Method: "SUBSCRIBE", Params: c.streams, ID: 1}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("websocket subscribe failed: %w", err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	c.logger.Info("WebSocket connected", zap.String("url", c.url), zap.Int("streams", len(c.streams)))
	return nil
}

// Listen reads frames until ctx is cancelled, reconnecting after read errors.
func (c *WSClient) Listen(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, websocket.ErrCloseSent) {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// reconnect retries Connect until it succeeds or ctx is done.
func (c *WSClient) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(reconnectDelay):
		}

		if err := c.Connect(ctx); err != nil {
			c.logger.Warn("Retrying reconnect...", zap.Error(err))
			continue
		}
		c.logger.Info("Reconnected successfully")
		return true
	}
}

// Close closes the current connection, which unblocks Listen.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
