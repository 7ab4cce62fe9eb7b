package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// Server broadcasts match events to connected clients. Each client joins a
// room named after its user id; the notification dispatcher emits into both
// parties' rooms. Durable notification jobs stay the source of truth; this
// is a best-effort fast path for clients that are currently online.
type Server struct {
	io *socketio.Server
}

// NewServer initializes the Socket.IO server and its room handlers.
func NewServer() *Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	io.OnEvent("/", "join", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Println("❌ Invalid userId in join request")
			return
		}
		log.Printf("👥 Socket %s joined room %s\n", c.ID(), userID)
		c.Join(userID)
	})

	io.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return &Server{io: io}
}

// NotifyMatch pushes a newMatch event into the user's room.
func (s *Server) NotifyMatch(userID string, payload map[string]interface{}) {
	s.io.BroadcastToRoom("/", userID, "newMatch", payload)
}

// IO exposes the underlying server for HTTP mounting and lifecycle control.
func (s *Server) IO() *socketio.Server {
	return s.io
}
