package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/config"
)

const (
	defaultConnectTimeout       = 10 * time.Second
	defaultWriteTimeout         = 5 * time.Second
	defaultReconnectInterval    = 2 * time.Second
	defaultMaxReconnectInterval = time.Minute
	closeGracePeriod            = time.Second
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Config holds connection settings for the control unit.
type Config struct {
	URL       string
	AuthToken string

	ConnectTimeout       time.Duration
	WriteTimeout         time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
}

// ConfigFrom converts the controller section of the application config.
func ConfigFrom(cfg config.ControllerConfig) Config {
	return Config{
		URL:                  cfg.URL,
		AuthToken:            cfg.AuthToken,
		ReconnectInterval:    time.Duration(cfg.Reconnect.InitialDelay) * time.Second,
		MaxReconnectInterval: time.Duration(cfg.Reconnect.MaxDelay) * time.Second,
	}
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = defaultReconnectInterval
	}
	if c.MaxReconnectInterval < c.ReconnectInterval {
		c.MaxReconnectInterval = defaultMaxReconnectInterval
		if c.MaxReconnectInterval < c.ReconnectInterval {
			c.MaxReconnectInterval = c.ReconnectInterval
		}
	}
}

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Stats reports connection counters.
type Stats struct {
	Connected      bool      `json:"connected"`
	FramesSent     uint64    `json:"frames_sent"`
	FramesReceived uint64    `json:"frames_received"`
	Reconnects     uint64    `json:"reconnects"`
	Errors         uint64    `json:"errors"`
	LastActivity   time.Time `json:"last_activity"`
}

// Client is a text-frame WebSocket connection to the control unit.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Inbound frames are handed to the message handler one at a time, in
//     arrival order, on the read goroutine.
//
// Auto-Reconnection:
//   - When the connection drops the client redials with exponential
//     backoff from ReconnectInterval up to MaxReconnectInterval.
//   - Reconnection stops only when Close() is called.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	connMu    sync.RWMutex
	conn      *websocket.Conn
	connected bool

	// gorilla/websocket allows one concurrent writer.
	writeMu sync.Mutex

	handlerMu sync.RWMutex
	onMessage func(raw string)
	onConnect func()

	done *closeOnce
	wg   sync.WaitGroup

	// lifetime is cancelled by Close and bounds redial attempts.
	lifetime context.Context
	cancel   context.CancelFunc

	logger Logger

	framesTx     atomic.Uint64
	framesRx     atomic.Uint64
	errorsTotal  atomic.Uint64
	reconnects   atomic.Uint64
	lastActivity atomic.Int64
}

// Connect dials the control unit, sends the auth token if one is set and
// starts the read loop. A nil logger discards output.
func Connect(ctx context.Context, cfg Config, logger Logger) (*Client, error) {
	cfg.applyDefaults()
	if err := validateURL(cfg.URL); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout},
		done:   newCloseOnce(),
		logger: logger,
	}
	c.lifetime, c.cancel = context.WithCancel(context.Background())

	if err := c.dial(ctx); err != nil {
		c.cancel()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.wg.Add(1)
	go c.receiveLoop()

	logger.Info("connected to controller", "url", cfg.URL)
	return c, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// dial opens a connection and performs the optional auth handshake.
func (c *Client) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	if c.cfg.AuthToken != "" {
		if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err == nil {
			err = conn.WriteMessage(websocket.TextMessage, []byte(c.cfg.AuthToken))
		}
		if err != nil {
			conn.Close()
			return fmt.Errorf("sending auth token: %w", err)
		}
	}

	c.connMu.Lock()
	if c.isClosed() {
		c.connMu.Unlock()
		conn.Close()
		return context.Canceled
	}
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	c.lastActivity.Store(time.Now().Unix())
	return nil
}

// SetOnMessage sets the handler for inbound frames. Frames that arrive
// with no handler set are dropped.
func (c *Client) SetOnMessage(fn func(raw string)) {
	c.handlerMu.Lock()
	c.onMessage = fn
	c.handlerMu.Unlock()
}

// SetOnConnect sets a callback run on its own goroutine after every
// successful reconnection, so it may call Send and wait for replies.
// It is not called for the initial connection. Close waits for a running
// callback to return.
func (c *Client) SetOnConnect(fn func()) {
	c.handlerMu.Lock()
	c.onConnect = fn
	c.handlerMu.Unlock()
}

// Send writes msg as one text frame.
func (c *Client) Send(ctx context.Context, msg string) error {
	c.connMu.RLock()
	conn, connected := c.conn, c.connected
	c.connMu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	c.framesTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	c.logger.Debug("frame sent", "frame", msg)
	return nil
}

// IsConnected reports whether the channel is currently up.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns a snapshot of the connection counters.
func (c *Client) Stats() Stats {
	return Stats{
		Connected:      c.IsConnected(),
		FramesSent:     c.framesTx.Load(),
		FramesReceived: c.framesRx.Load(),
		Reconnects:     c.reconnects.Load(),
		Errors:         c.errorsTotal.Load(),
		LastActivity:   time.Unix(c.lastActivity.Load(), 0),
	}
}

// HealthCheck reports ErrNotConnected while the channel is down.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close stops reconnection, closes the connection and waits for the read
// loop to exit. Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()
	c.cancel()

	c.connMu.Lock()
	conn := c.conn
	c.connected = false
	c.connMu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)) //nolint:errcheck // best-effort close frame
		c.writeMu.Unlock()
		conn.Close()
	}

	c.wg.Wait()
	c.logger.Info("controller connection closed")
	return nil
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// receiveLoop reads frames until Close, reconnecting whenever the
// connection drops.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()

		if conn == nil {
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			c.handleDisconnect(err)
			if !c.reconnect() {
				return
			}
			continue
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.framesRx.Add(1)
		c.lastActivity.Store(time.Now().Unix())
		c.deliver(string(data))
	}
}

// deliver runs the message handler, recovering from panics so one bad
// frame cannot kill the read loop.
func (c *Client) deliver(raw string) {
	c.handlerMu.RLock()
	fn := c.onMessage
	c.handlerMu.RUnlock()

	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.errorsTotal.Add(1)
			c.logger.Error("message handler panic", "panic", fmt.Sprint(r), "frame", raw)
		}
	}()
	fn(raw)
}

func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.errorsTotal.Add(1)
	if wasConnected {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Warn("controller closed the connection, will reconnect", "error", err)
		} else {
			c.logger.Warn("controller connection lost, will reconnect", "error", err)
		}
	}
}

// reconnect redials with exponential backoff. It returns false if Close
// was called first.
func (c *Client) reconnect() bool {
	backoff := c.cfg.ReconnectInterval
	attempt := 0

	for {
		select {
		case <-c.done.Done():
			return false
		case <-time.After(backoff):
		}

		attempt++
		c.logger.Info("attempting reconnection", "attempt", attempt, "backoff", backoff.String())

		err := c.dial(c.lifetime)
		if err == nil {
			c.reconnects.Add(1)
			c.logger.Info("reconnection successful", "attempts", attempt, "total_reconnects", c.reconnects.Load())
			c.notifyConnect()
			return true
		}
		if errors.Is(err, context.Canceled) && c.isClosed() {
			return false
		}

		c.errorsTotal.Add(1)
		c.logger.Warn("reconnect failed", "attempt", attempt, "error", err)

		backoff = time.Duration(float64(backoff) * 1.5)
		if backoff > c.cfg.MaxReconnectInterval {
			backoff = c.cfg.MaxReconnectInterval
		}
	}
}

func (c *Client) notifyConnect() {
	c.handlerMu.RLock()
	fn := c.onConnect
	c.handlerMu.RUnlock()

	if fn == nil {
		return
	}
	// Run asynchronously so the callback may send and await responses,
	// which this goroutine must keep reading to deliver.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("connect callback panic", "panic", fmt.Sprint(r))
			}
		}()
		fn()
	}()
}
