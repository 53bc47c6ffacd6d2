package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-leds/internal/device"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/logging"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck // Test cleanup
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // Test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestWebSocket_StateChangedEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	conn := dialWS(t, ts)
	if err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelDeviceStateChanged}},
	}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if ack := readWS(t, conn); ack.Type != WSTypeResponse || ack.ID != "sub-1" {
		t.Fatalf("ack = %+v", ack)
	}

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/leds/4", strings.NewReader(`{"state":"toggle"}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	resp.Body.Close()

	event := readWS(t, conn)
	if event.Type != WSTypeEvent || event.EventType != ChannelDeviceStateChanged {
		t.Fatalf("event = %+v", event)
	}
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		t.Fatalf("re-encoding payload: %v", err)
	}
	if string(raw) != `{"id":"4","state":{"state":"toggle"}}` {
		t.Errorf("payload = %s", raw)
	}
}

func TestWebSocket_ReportsAreRelayed(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	conn := dialWS(t, ts)
	//nolint:errcheck // Test write
	conn.WriteJSON(WSMessage{Type: WSTypeSubscribe, Payload: WSSubscribePayload{Channels: []string{ChannelDeviceStateChanged}}})
	readWS(t, conn)

	if err := env.ctrl.HandleMessage("leds/manage/add", []byte(`{"uuid":"abc"}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	event := readWS(t, conn)
	payload, _ := event.Payload.(map[string]any) //nolint:errcheck // checked below
	if payload["id"] != "abc" {
		t.Errorf("payload = %v, want id abc", event.Payload)
	}
}

func TestWebSocket_PingAndUnknown(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	conn := dialWS(t, ts)
	//nolint:errcheck // Test write
	conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p"})
	if msg := readWS(t, conn); msg.Type != WSTypePong || msg.ID != "p" {
		t.Errorf("ping reply = %+v", msg)
	}

	//nolint:errcheck // Test write
	conn.WriteJSON(WSMessage{Type: "dance", ID: "d"})
	if msg := readWS(t, conn); msg.Type != WSTypeError {
		t.Errorf("unknown reply = %+v", msg)
	}
}

func TestHub_BroadcastOnlyToSubscribers(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	subscribed := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{ChannelDeviceStateChanged: {}}}
	other := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{}}
	hub.Register(subscribed)
	hub.Register(other)

	hub.DeviceStateChanged("1", device.SimpleState{State: device.SwitchOn})

	if len(subscribed.send) != 1 {
		t.Error("subscriber did not receive the event")
	}
	if len(other.send) != 0 {
		t.Error("non-subscriber received the event")
	}

	hub.Unregister(subscribed)
	hub.Unregister(subscribed)
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() after Run = %d, want 0", hub.ClientCount())
	}
}

func TestNewHub_Defaults(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	if hub.cfg.PingInterval != defaultPingInterval || hub.cfg.PongTimeout != defaultPongTimeout {
		t.Errorf("cfg = %+v", hub.cfg)
	}
}
