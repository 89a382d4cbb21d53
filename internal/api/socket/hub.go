package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
)

// Socket events emitted by the gateway.
const (
	EventConnected           = "connected"
	EventConnectError        = "connect_error"
	EventOnlineStatusChanged = "online_status_changed"
)

const sendBuffer = 16

// Message is the envelope for every server-to-client frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// OnlineStatus is the payload of online_status_changed.
type OnlineStatus struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

func roleRoom(role domain.Role) string { return "role:" + string(role) }

func userRoom(userID string) string { return "user:" + userID }

// client is one accepted connection. Only its writePump writes to conn.
type client struct {
	id       string
	identity *domain.Identity
	conn     *websocket.Conn
	send     chan []byte
	rooms    []string
}

// Hub tracks room membership for accepted connections.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*client]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{rooms: make(map[string]map[*client]struct{}), logger: logger}
}

func (h *Hub) join(c *client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
		c.rooms = append(c.rooms, room)
	}
}

// leave removes c from every room. After it returns no Emit can reach c.
func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = nil
}

// Emit sends msg to every member of room except the skipped client.
// Slow consumers whose buffer is full miss the frame.
func (h *Hub) Emit(room string, msg Message, skip *client) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode socket message", zap.String("event", msg.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c == skip {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("socket send buffer full",
				zap.String("conn_id", c.id),
				zap.String("event", msg.Event))
		}
	}
}

// CloseAll sends a going-away close frame to every connection and closes it.
// The gateway's read loops then run their normal disconnect path.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	seen := make(map[*client]struct{})
	for _, members := range h.rooms {
		for c := range members {
			seen[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	for c := range seen {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
	}
}

// RoomSize reports how many connections are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
