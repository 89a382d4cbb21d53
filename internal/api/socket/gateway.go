package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/observability"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 4096
)

// Authorizer is the authorization gate shared with the HTTP middleware.
type Authorizer interface {
	Authorize(ctx context.Context, token string, allowed ...domain.Role) (*domain.Identity, error)
}

// PresenceTracker records live connections per user.
type PresenceTracker interface {
	Connect(ctx context.Context, userID string, role domain.Role) (bool, error)
	Disconnect(ctx context.Context, userID string, role domain.Role) (bool, error)
}

type handshake struct {
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
}

// Gateway authenticates websocket connections and announces presence changes.
type Gateway struct {
	hub              *Hub
	gate             Authorizer
	presence         PresenceTracker
	metrics          *observability.Metrics
	logger           *zap.Logger
	upgrader         websocket.Upgrader
	handshakeTimeout time.Duration
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	HandshakeTimeout time.Duration
	AllowedOrigins   []string
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewGateway builds a gateway. A nil presence tracker disables presence
// bookkeeping and every connect and disconnect is announced.
func NewGateway(hub *Hub, gate Authorizer, presence PresenceTracker, opts GatewayOptions) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		hub:              hub,
		gate:             gate,
		presence:         presence,
		metrics:          opts.Metrics,
		logger:           logger.With(zap.String("component", "socket")),
		handshakeTimeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
	}
}

// checkOrigin admits any origin when none are configured.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrame)

	identity, err := g.authenticate(r.Context(), conn)
	if err != nil {
		g.reject(conn, err)
		return
	}

	c := &client{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	go g.writePump(c)

	g.hub.join(c, roleRoom(identity.RoleID), userRoom(identity.UserID))
	g.push(c, Message{Event: EventConnected, Data: identity})
	g.metrics.SocketConnected(1)
	g.logger.Info("socket connected",
		zap.String("conn_id", c.id),
		zap.String("user_id", identity.UserID),
		zap.String("role", string(identity.RoleID)))

	ctx := context.WithoutCancel(r.Context())
	if g.transition(ctx, c, true) {
		g.announce(c, true)
	}

	g.readPump(c)

	g.hub.leave(c)
	close(c.send)
	g.metrics.SocketConnected(-1)
	if g.transition(ctx, c, false) {
		g.announce(c, false)
	}
	g.logger.Info("socket disconnected", zap.String("conn_id", c.id), zap.String("user_id", identity.UserID))
}

// authenticate reads the first frame and runs it through the gate.
func (g *Gateway) authenticate(ctx context.Context, conn *websocket.Conn) (*domain.Identity, error) {
	if err := conn.SetReadDeadline(time.Now().Add(g.handshakeTimeout)); err != nil {
		return nil, err
	}
	var hs handshake
	if err := conn.ReadJSON(&hs); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errHandshakeTimeout
		}
		return nil, errBadHandshake
	}
	return g.gate.Authorize(ctx, hs.Auth.Token)
}

var (
	errHandshakeTimeout = errors.New("handshake timeout")
	errBadHandshake     = errors.New("invalid handshake payload")
)

// reject reports the failure as connect_error and closes the connection.
// Nothing else writes to conn yet, so it writes directly.
func (g *Gateway) reject(conn *websocket.Conn, cause error) {
	defer conn.Close()

	message := cause.Error()
	g.logger.Info("socket rejected", zap.String("reason", message))

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Event: EventConnectError, Data: map[string]string{"message": message}}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(writeWait))
}

// transition records the connect or disconnect and reports whether the
// user's online state changed. Presence outages fail open.
func (g *Gateway) transition(ctx context.Context, c *client, online bool) bool {
	if g.presence == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	var (
		changed bool
		err     error
	)
	if online {
		changed, err = g.presence.Connect(ctx, c.identity.UserID, c.identity.RoleID)
	} else {
		changed, err = g.presence.Disconnect(ctx, c.identity.UserID, c.identity.RoleID)
	}
	if err != nil {
		g.logger.Warn("presence update failed", zap.String("user_id", c.identity.UserID), zap.Bool("online", online), zap.Error(err))
		return true
	}
	return changed
}

// announce tells the rest of the caller's role room about a status change.
// Super admins connect silently.
func (g *Gateway) announce(c *client, online bool) {
	if c.identity.RoleID == domain.RoleSuperAdmin {
		return
	}
	g.hub.Emit(roleRoom(c.identity.RoleID), Message{
		Event: EventOnlineStatusChanged,
		Data:  OnlineStatus{UserID: c.identity.UserID, IsOnline: online},
	}, c)
}

func (g *Gateway) push(c *client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("failed to encode socket message", zap.String("event", msg.Event), zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	default:
		g.logger.Warn("socket send buffer full", zap.String("conn_id", c.id), zap.String("event", msg.Event))
	}
}

// readPump discards client frames; it exists to service control frames and
// detect disconnects.
func (g *Gateway) readPump(c *client) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.Warn("socket read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (g *Gateway) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
