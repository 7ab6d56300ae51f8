package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// fakeController is a WebSocket server that records inbound frames and
// answers them through reply.
type fakeController struct {
	t      *testing.T
	reply  func(frame string) string
	mu     sync.Mutex
	frames []string
}

func (f *fakeController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame := string(data)
		f.mu.Lock()
		f.frames = append(f.frames, frame)
		f.mu.Unlock()

		if f.reply == nil {
			continue
		}
		if out := f.reply(frame); out != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(out)); err != nil {
				return
			}
		}
	}
}

func (f *fakeController) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

func startController(t *testing.T, f *fakeController) string {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConnect_SendAndReceive(t *testing.T) {
	ctrl := &fakeController{reply: func(frame string) string {
		if frame == "GET|DEVICE_COUNT" {
			return "DEVICE_COUNT=3"
		}
		return ""
	}}
	url := startController(t, ctrl)

	c, err := Connect(context.Background(), Config{URL: url}, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	got := make(chan string, 1)
	c.SetOnMessage(func(raw string) { got <- raw })

	if err := c.Send(context.Background(), "GET|DEVICE_COUNT"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case raw := <-got:
		if raw != "DEVICE_COUNT=3" {
			t.Errorf("received %q", raw)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no response received")
	}

	stats := c.Stats()
	if !stats.Connected || stats.FramesSent != 1 || stats.FramesReceived != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_SendsAuthTokenFirst(t *testing.T) {
	ctrl := &fakeController{}
	url := startController(t, ctrl)

	c, err := Connect(context.Background(), Config{URL: url, AuthToken: "1234"}, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if err := c.Send(context.Background(), "SET_LOAD|0x0364"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	waitFor(t, func() bool { return len(ctrl.received()) == 2 })
	frames := ctrl.received()
	if frames[0] != "1234" || frames[1] != "SET_LOAD|0x0364" {
		t.Errorf("frames = %v", frames)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	for _, raw := range []string{"http://controller", "ws://", "::"} {
		if _, err := Connect(context.Background(), Config{URL: raw}, nil); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Connect(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := Connect(context.Background(), Config{URL: url, ConnectTimeout: time.Second}, nil)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_Reconnects(t *testing.T) {
	ctrl := &fakeController{reply: func(frame string) string { return "ECHO=" + frame }}
	url := startController(t, ctrl)

	c, err := Connect(context.Background(), Config{
		URL:               url,
		ReconnectInterval: 10 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	var reconnected atomic.Int32
	c.SetOnConnect(func() { reconnected.Add(1) })

	// Force the server side to drop by closing our end of the socket.
	c.connMu.RLock()
	c.conn.UnderlyingConn().Close()
	c.connMu.RUnlock()

	waitFor(t, func() bool { return reconnected.Load() == 1 && c.IsConnected() })

	got := make(chan string, 1)
	c.SetOnMessage(func(raw string) { got <- raw })
	if err := c.Send(context.Background(), "ping"); err != nil {
		t.Fatalf("Send() after reconnect error = %v", err)
	}
	select {
	case raw := <-got:
		if raw != "ECHO=ping" {
			t.Errorf("received %q", raw)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no response after reconnect")
	}
	if c.Stats().Reconnects != 1 {
		t.Errorf("Reconnects = %d, want 1", c.Stats().Reconnects)
	}
}

func TestClient_HandlerPanicRecovered(t *testing.T) {
	ctrl := &fakeController{reply: func(frame string) string { return frame }}
	url := startController(t, ctrl)

	c, err := Connect(context.Background(), Config{URL: url}, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	got := make(chan string, 2)
	c.SetOnMessage(func(raw string) {
		if raw == "boom" {
			panic("bad frame")
		}
		got <- raw
	})

	for _, msg := range []string{"boom", "ok"} {
		if err := c.Send(context.Background(), msg); err != nil {
			t.Fatalf("Send(%q) error = %v", msg, err)
		}
	}

	select {
	case raw := <-got:
		if raw != "ok" {
			t.Errorf("received %q", raw)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("read loop did not survive a handler panic")
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	url := startController(t, &fakeController{})

	c, err := Connect(context.Background(), Config{URL: url}, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if err := c.Send(context.Background(), "x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{ReconnectInterval: 5 * time.Minute}
	cfg.applyDefaults()

	if cfg.ConnectTimeout != defaultConnectTimeout || cfg.WriteTimeout != defaultWriteTimeout {
		t.Errorf("timeouts = %v / %v", cfg.ConnectTimeout, cfg.WriteTimeout)
	}
	if cfg.MaxReconnectInterval != 5*time.Minute {
		t.Errorf("MaxReconnectInterval = %v, want raised to ReconnectInterval", cfg.MaxReconnectInterval)
	}
}
