package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *core.Coordinator) {
	t.Helper()

	disabledLogger := zerolog.Nop()
	hub := core.NewCoordinator(core.Options{DefaultRoom: cfg.DefaultRoom, Logger: &disabledLogger})
	server := NewServer(hub, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts, hub
}

func wsURL(ts *httptest.Server, query string) string {
	u := strings.Replace(ts.URL, "http", "ws", 1) + wsPath
	if query != "" {
		u += "?" + query
	}
	return u
}

func dial(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readEvent skips frames until one named event arrives and decodes its data into v.
func readEvent(ctx context.Context, t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()

	for {
		var ev wireEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if ev.Event != event {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(ev.Data, v); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
		}
		return
	}
}

// nextEvent returns the very next frame.
func nextEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	var ev wireEvent
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}
