package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// Server wraps the Socket.IO server with per-group watch rooms
type Server struct {
	IO *socketio.Server
}

// NewSocketServer initializes the Socket.IO server. Clients join a
// "group:<id>" room via watchGroup and receive lifecycleUpdate events when
// the store reports a change for that group.
func NewSocketServer() *Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Println("Socket connected:", s.ID())
		return nil
	})

	server.OnEvent("/", "watchGroup", func(s socketio.Conn, groupID string) {
		if groupID == "" {
			log.Println("Invalid groupId in watchGroup request")
			return
		}
		s.Join(roomFor(groupID))
	})

	server.OnEvent("/", "unwatchGroup", func(s socketio.Conn, groupID string) {
		if groupID == "" {
			return
		}
		s.Leave(roomFor(groupID))
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("Socket disconnected:", s.ID(), reason)
	})

	return &Server{IO: server}
}

// BroadcastLifecycle notifies everyone watching a group that its lifecycle
// state may have changed and should be re-read
func (s *Server) BroadcastLifecycle(groupID string, payload interface{}) {
	s.IO.BroadcastToRoom("/", roomFor(groupID), "lifecycleUpdate", payload)
}

func roomFor(groupID string) string {
	return "group:" + groupID
}
