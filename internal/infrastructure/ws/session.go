package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth happens before the upgrade; cross-origin browser clients are fine
	CheckOrigin: func(r *http.Request) bool { return true },
}

type session struct {
	userID string
	conn   *websocket.Conn
	send   chan notificationEvent
	done   chan struct{}
	once   sync.Once
}

// closeOnce tears the session down. It closes done, never send: Push may
// be sending into send concurrently, and closing it from here would panic
// the pushing goroutine.
func (s *session) closeOnce() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away. The caller must have authenticated userID already.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		log.Warn().Err(err).Str("user_id", userID).Msg("ws: upgrade failed")
		return
	}

	s := &session{
		userID: userID,
		conn:   conn,
		send:   make(chan notificationEvent, sendBuffer),
		done:   make(chan struct{}),
	}
	h.add(s)

	go s.writePump()
	go h.readPump(s)
}

// writePump owns all writes on the connection, including pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case evt := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; clients only listen. It exists to
// service pongs and to notice the peer closing.
func (h *Hub) readPump(s *session) {
	defer func() {
		h.remove(s)
		s.closeOnce()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
