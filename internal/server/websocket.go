package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/charue808/eikogames/internal/game"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 16
)

// wsClient is one feed connection. Only its write pump writes to the socket;
// everyone else queues on send.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// wsHub groups feed connections by room code. Queuing never blocks: a client
// whose queue is full is dropped.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]*wsClient
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]*wsClient),
	}
}

func (h *wsHub) Add(roomCode string, conn *websocket.Conn) {
	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	group := h.groups[roomCode]
	if group == nil {
		group = make(map[*websocket.Conn]*wsClient)
		h.groups[roomCode] = group
	}
	group[conn] = client
	h.mu.Unlock()
	go h.writePump(roomCode, client)
}

func (h *wsHub) Remove(roomCode string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomCode, conn)
}

func (h *wsHub) removeLocked(roomCode string, conn *websocket.Conn) {
	group := h.groups[roomCode]
	client, ok := group[conn]
	if !ok {
		return
	}
	delete(group, conn)
	close(client.send)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, roomCode)
	}
}

func (h *wsHub) Send(roomCode string, conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.groups[roomCode][conn]; ok {
		h.enqueueLocked(roomCode, client, data)
	}
}

func (h *wsHub) Broadcast(roomCode string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.groups[roomCode] {
		h.enqueueLocked(roomCode, client, data)
	}
}

func (h *wsHub) enqueueLocked(roomCode string, client *wsClient, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Printf("ws client too slow room_code=%s remote=%s", roomCode, client.conn.RemoteAddr())
		h.removeLocked(roomCode, client.conn)
	}
}

func (h *wsHub) writePump(roomCode string, client *wsClient) {
	for data := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws write failed room_code=%s error=%v", roomCode, err)
			h.Remove(roomCode, client.conn)
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	roomCode := game.NormalizeRoomCode(c.Param("roomCode"))
	state, err := s.svc.State(c.Request.Context(), roomCode, "")
	if err != nil {
		writeError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_code=%s remote=%s", roomCode, c.Request.RemoteAddr)
	s.ws.Add(roomCode, conn)
	s.ws.Send(roomCode, conn, roomUpdate(roomCode, "connected", state))
	go s.readWS(roomCode, conn)
}

func (s *Server) readWS(roomCode string, conn *websocket.Conn) {
	defer s.ws.Remove(roomCode, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_code=%s error=%v", roomCode, err)
			return
		}
	}
}
