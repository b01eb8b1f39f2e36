package gateway

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/monitoring"
)

// Hub is the registry of live sessions and the broadcast fan-out point. It
// implements ports.Broadcaster: delivery is fire-and-forget, per-session
// failures are isolated, and every session observes broadcasts in the same
// order because the enqueue pass below is exclusive — concurrent broadcasts
// never interleave their per-session loops.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session

	logger  *zap.SugaredLogger
	metrics *monitoring.Collector
}

func NewHub(logger *zap.SugaredLogger, metrics *monitoring.Collector) *Hub {
	return &Hub{
		sessions: make(map[string]*session),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Hub) add(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	s, exists := h.sessions[id]
	if exists {
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if exists {
		s.close()
	}
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// broadcast marshals the event once and enqueues it on every session. The
// write lock keeps concurrent broadcasts from interleaving, so all sessions
// see frames in one global order. Enqueue never blocks, so the exclusive
// section stays short.
func (h *Hub) broadcast(event string, payload interface{}) {
	frame, err := json.Marshal(serverEvent{Type: event, Payload: payload})
	if err != nil {
		h.logger.Errorw("failed to marshal broadcast event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.sessions {
		if !s.enqueue(frame) {
			h.metrics.FrameDropped()
			h.logger.Warnw("dropped broadcast frame for slow session",
				"session_id", s.id,
				"event", event,
			)
		}
	}
	h.metrics.BroadcastSent(event)
}

// BroadcastNewMessage pushes a stored message to every live session, the
// sender included.
func (h *Hub) BroadcastNewMessage(msg *domain.Message) {
	h.metrics.MessageStored()
	h.broadcast(eventNewMessage, msg)
}

// BroadcastBan notifies every session of a ban.
func (h *Hub) BroadcastBan(username, reason string) {
	h.broadcast(eventBanResponse, banBroadcastPayload{
		Success:  true,
		Username: username,
		Reason:   reason,
	})
}

// CloseAll releases every session, used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
