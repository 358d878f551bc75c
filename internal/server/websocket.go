package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST surface is already open to any origin; the event feed
	// follows the same policy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// devicesEvent is the payload pushed on every registry publish. Same
// shape as GET /devices so clients can share a decoder.
type devicesEvent struct {
	Devices []device.Record `json:"devices"`
}

// hub fans registry publishes out to connected WebSocket clients.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

// handle upgrades the request and keeps the connection registered until
// the client goes away. Clients only receive; inbound messages are
// drained and discarded.
func (h *hub) handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	logging.Debug("WebSocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Read loop exists only to detect disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

// broadcast pushes the new snapshot to every client. A failed write
// drops that client.
func (h *hub) broadcast(records []device.Record) {
	event := devicesEvent{Devices: records}
	if event.Devices == nil {
		event.Devices = []device.Record{}
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
		}
	}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}
