package notify

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// WSHandler bridges hub subscriptions onto WebSocket connections.
type WSHandler struct {
	hub *Hub
}

// NewWSHandler creates a WebSocket handler backed by the hub.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// PassengerSocket streams a passenger's trip events.
func (h *WSHandler) PassengerSocket(c *gin.Context) {
	h.serve(c, PassengerSubject(c.Param("id")))
}

// DriverSocket streams one driver's events.
func (h *WSHandler) DriverSocket(c *gin.Context) {
	h.serve(c, DriverSubject(c.Param("id")))
}

// DispatchSocket streams the broadcast feed of new trip requests.
func (h *WSHandler) DispatchSocket(c *gin.Context) {
	h.serve(c, SubjectDrivers)
}

func (h *WSHandler) serve(c *gin.Context, subject string) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	defer ws.Close()

	conn := &safeConn{ws: ws}
	sub := h.hub.Subscribe(subject)
	defer sub.Unsubscribe()

	// Drain the read side so close frames and pings are processed,
	// and so a client disconnect ends the write loop below.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.writeJSON(event); err != nil {
				log.Printf("[ws] write error on %s: %v", subject, err)
				return
			}
		case <-done:
			return
		}
	}
}
