package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session is one live gateway connection, bound to the client's network
// address for its lifetime. Outbound frames go through a buffered channel
// drained by the writer goroutine; a full buffer drops the frame so a slow
// client never blocks broadcast delivery to the others.
type session struct {
	id   string
	ip   string
	conn *websocket.Conn

	send      chan []byte
	closeOnce sync.Once
}

func newSession(id, ip string, conn *websocket.Conn, sendBuffer int) *session {
	return &session{
		id:   id,
		ip:   ip,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// enqueue hands a frame to the writer. Returns false when the buffer is
// full and the frame was dropped.
func (s *session) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once, which stops the writer.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// writePump drains the send channel onto the connection and keeps the peer
// alive with pings. It exits when the send channel closes or a write fails.
func (s *session) writePump(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
