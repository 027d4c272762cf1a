package ws

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfshare/shelfshare/internal/domain"
)

const sendBuffer = 16

// notificationEvent is the wire shape pushed to connected clients.
type notificationEvent struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	BookTitle string    `json:"bookTitle"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hub tracks live connections per user and fans notifications out to them.
// A user may hold several connections (multiple tabs); each gets the event.
// Implements notify.Pusher.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*session]struct{})}
}

// Push delivers a notification to every live connection of the user.
// Offline users and slow consumers are dropped silently; the caller has
// already persisted the notification.
func (h *Hub) Push(userID string, n domain.Notification) {
	evt := notificationEvent{
		ID:        n.ID,
		Status:    string(n.Status),
		Message:   n.Message,
		BookTitle: n.BookTitle,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}

	h.mu.RLock()
	conns := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		conns = append(conns, s)
	}
	h.mu.RUnlock()

	for _, s := range conns {
		select {
		case <-s.done:
			// torn down between the snapshot and the send
			continue
		default:
		}

		select {
		case s.send <- evt:
		case <-s.done:
		default:
			// backed-up client, disconnect it rather than block the push
			log.Warn().Str("user_id", userID).Msg("ws: dropping slow connection")
			h.remove(s)
			s.closeOnce()
		}
	}
}

// Connections reports how many live connections a user currently holds.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) add(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[s.userID] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.userID)
	}
}
