// Package ingestion pulls live pool events from a WebSocket feed and
// writes them into a PoolEventStore for later replay.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

// WSFeedConfig configures WebSocket feed behavior.
type WSFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Logger receives protocol-level errors. Defaults to log.Default().
	Logger *log.Logger
}

// DefaultWSFeedConfig returns default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSFeed streams pool events over a WebSocket connection.
// The feed subscribes to one or more pools and delivers every event
// exactly as received; deduplication happens at the store layer.
type WSFeed struct {
	endpoint string
	pools    []string
	config   WSFeedConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan *domain.PoolEvent

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewWSFeed connects to the endpoint and subscribes to the given pools.
func NewWSFeed(ctx context.Context, endpoint string, pools []string, config *WSFeedConfig) (*WSFeed, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("no pools to subscribe")
	}

	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	f := &WSFeed{
		endpoint: endpoint,
		pools:    pools,
		config:   cfg,
		logger:   logger,
		// Large buffer absorbs bursts; blocking send ensures no event loss.
		events: make(chan *domain.PoolEvent, 10000),
		done:   make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}
	if err := f.subscribe(); err != nil {
		f.conn.Close()
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// Events returns the channel of incoming pool events.
// The channel is closed when the feed shuts down.
func (f *WSFeed) Events() <-chan *domain.PoolEvent {
	return f.events
}

// connect establishes the WebSocket connection.
func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// subscribe sends the subscription request for all configured pools.
func (f *WSFeed) subscribe() error {
	req := wsSubscribeRequest{
		Op:    "subscribe",
		Pools: f.pools,
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()

	if f.conn == nil {
		return fmt.Errorf("not connected")
	}

	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close shuts down the feed and closes the event channel.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	close(f.events)
	return nil
}

// readLoop reads messages and dispatches events to the channel.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			// Connection error, attempt reconnect with exponential backoff
			if !f.reconnecting.Swap(true) {
				go f.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (f *WSFeed) reconnect(delay time.Duration) {
	defer f.reconnecting.Store(false)

	if f.closed.Load() {
		return
	}

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	// Resubscribe; failure here surfaces as a read error and retries
	f.subscribe()
}

// handleMessage parses an incoming message and forwards events.
func (f *WSFeed) handleMessage(message []byte) {
	var msg wsEventMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Op {
	case "event":
		if msg.Event == nil {
			return
		}
		event := msg.Event.toDomain()
		// Block until we can send, never drop events
		select {
		case f.events <- event:
		case <-f.done:
		}
	case "error":
		f.logger.Printf("Feed error response: %s", msg.Message)
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			f.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsSubscribeRequest struct {
	Op    string   `json:"op"`
	Pools []string `json:"pools"`
}

type wsEventMessage struct {
	Op      string       `json:"op"`
	Event   *wsPoolEvent `json:"event,omitempty"`
	Message string       `json:"message,omitempty"`
}

type wsPoolEvent struct {
	Pool        string  `json:"pool"`
	Block       int64   `json:"block"`
	TxHash      string  `json:"tx_hash"`
	LogIndex    int     `json:"log_index"`
	Timestamp   int64   `json:"timestamp"`
	Kind        string  `json:"kind"`
	PriceBefore float64 `json:"price_before"`
	Price       float64 `json:"price"`
	LowerPrice  float64 `json:"lower_price"`
	UpperPrice  float64 `json:"upper_price"`
	Liquidity   float64 `json:"liquidity"`
	AmountX     float64 `json:"amount_x"`
	AmountY     float64 `json:"amount_y"`
	Owner       string  `json:"owner"`
}

func (e *wsPoolEvent) toDomain() *domain.PoolEvent {
	return &domain.PoolEvent{
		Pool:        e.Pool,
		Block:       e.Block,
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
		Timestamp:   e.Timestamp,
		Kind:        domain.EventKind(e.Kind),
		PriceBefore: e.PriceBefore,
		Price:       e.Price,
		LowerPrice:  e.LowerPrice,
		UpperPrice:  e.UpperPrice,
		Liquidity:   e.Liquidity,
		AmountX:     e.AmountX,
		AmountY:     e.AmountY,
		Owner:       e.Owner,
	}
}
