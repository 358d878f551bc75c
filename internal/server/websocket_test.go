package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/registry"
)

func TestWebSocket_PushesRegistryPublishes(t *testing.T) {
	reg := registry.New()
	srv := newTestServer(t, nil, nil, reg)

	api := httptest.NewServer(srv.Handler())
	defer api.Close()

	wsURL := strings.Replace(api.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	reg.Publish([]device.Record{{ID: "cam-1", Name: "Garage", Address: "10.0.0.7"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var event devicesEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(event.Devices) != 1 || event.Devices[0].ID != "cam-1" {
		t.Errorf("event = %+v, want the published device", event)
	}
}

func TestWebSocket_DisconnectedClientDropped(t *testing.T) {
	reg := registry.New()
	srv := newTestServer(t, nil, nil, reg)

	api := httptest.NewServer(srv.Handler())
	defer api.Close()

	wsURL := strings.Replace(api.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	_ = conn.Close()

	// Give the read loop a moment to observe the close
	time.Sleep(50 * time.Millisecond)

	// Publishing after the disconnect must not panic or block
	reg.Publish([]device.Record{{ID: "cam-2"}})
}
