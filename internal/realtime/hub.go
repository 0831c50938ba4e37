package realtime

import (
	"log/slog"

	socketio "github.com/googollee/go-socket.io"
)

// Hub wraps a Socket.IO server. Clients subscribe to their user channel on
// connect and join/leave chat rooms explicitly; services broadcast through
// the Notifier interface.
type Hub struct {
	server *socketio.Server
	log    *slog.Logger
}

// NewHub initializes the Socket.IO server and its event handlers.
func NewHub(log *slog.Logger) *Hub {
	server := socketio.NewServer(nil)
	h := &Hub{server: server, log: log}

	server.OnConnect("/", func(c socketio.Conn) error {
		h.log.Debug("socket connected", "sid", c.ID())
		return nil
	})

	// subscribe binds the connection to its user channel
	server.OnEvent("/", "subscribe", func(c socketio.Conn, data map[string]string) {
		userID := data["userId"]
		if userID == "" {
			h.log.Warn("subscribe without userId", "sid", c.ID())
			return
		}
		c.Join("user_" + userID)
	})

	server.OnEvent("/", "join", func(c socketio.Conn, data map[string]string) {
		chatID := data["chatId"]
		if chatID == "" {
			h.log.Warn("join without chatId", "sid", c.ID())
			return
		}
		c.Join("chat_" + chatID)
	})

	server.OnEvent("/", "leave", func(c socketio.Conn, data map[string]string) {
		if chatID := data["chatId"]; chatID != "" {
			c.Leave("chat_" + chatID)
		}
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		h.log.Error("socket error", "err", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		h.log.Debug("socket disconnected", "sid", c.ID(), "reason", reason)
	})

	return h
}

// Server exposes the underlying Socket.IO server for HTTP mounting.
func (h *Hub) Server() *socketio.Server { return h.server }

// Run starts the Socket.IO event loop. Blocks until Close.
func (h *Hub) Run() error { return h.server.Serve() }

func (h *Hub) Close() error { return h.server.Close() }

func (h *Hub) EmitToChat(chatID uint64, event string, payload any) {
	h.server.BroadcastToRoom("/", ChatRoom(chatID), event, payload)
}

func (h *Hub) EmitToUser(userID uint64, event string, payload any) {
	h.server.BroadcastToRoom("/", UserRoom(userID), event, payload)
}
