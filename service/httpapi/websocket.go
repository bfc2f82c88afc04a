package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/viant/oversight/model/approval"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// hub fans lifecycle events out to connected websocket clients.
type hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]chan []byte
	closed      bool
}

func newHub() *hub {
	return &hub{connections: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	send := make(chan []byte, 256)
	h.connections[conn] = send
	return send
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		close(send)
	}
}

// broadcast delivers event to every connection; a client that cannot keep up
// loses events rather than stalling the pump.
func (h *hub) broadcast(event *approval.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal lifecycle event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.connections {
		select {
		case send <- data:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, send := range h.connections {
		delete(h.connections, conn)
		close(send)
		_ = conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleEvents upgrades the connection and streams lifecycle events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	send := s.hub.register(conn)
	if send == nil {
		_ = conn.Close()
		return
	}
	go s.writePump(conn, send)
	go s.readPump(conn)
}

func (s *Server) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case message, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains control frames; any read error ends the connection.
func (s *Server) readPump(conn *websocket.Conn) {
	defer s.hub.unregister(conn)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
