package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/monitoring"
	"github.com/Xiaomckedou233/XiaoLive/pkg/config"
	apperrors "github.com/Xiaomckedou233/XiaoLive/pkg/errors"
	"github.com/Xiaomckedou233/XiaoLive/pkg/tracing"
	"github.com/Xiaomckedou233/XiaoLive/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay and chat clients connect cross-origin
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketServer is the session gateway: it accepts event-channel
// connections, binds each to the requester's IP, validates inbound events
// against the chat core, and acks every request.
type WebSocketServer struct {
	hub  *Hub
	chat ports.ChatService

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
	sendBuffer   int

	limitMessages bool
	messageRate   rate.Limit
	messageBurst  int

	logger  *zap.SugaredLogger
	metrics *monitoring.Collector
}

func NewWebSocketServer(
	hub *Hub,
	chat ports.ChatService,
	cfg *config.Config,
	logger *zap.SugaredLogger,
	metrics *monitoring.Collector,
) *WebSocketServer {
	return &WebSocketServer{
		hub:           hub,
		chat:          chat,
		pingInterval:  cfg.Gateway.PingInterval,
		pongTimeout:   cfg.Gateway.PongTimeout,
		writeTimeout:  cfg.Gateway.WriteTimeout,
		sendBuffer:    cfg.Gateway.SendBuffer,
		limitMessages: cfg.RateLimiting.Enabled,
		messageRate:   rate.Limit(cfg.RateLimiting.WebSocket.MessagesPerSecond),
		messageBurst:  cfg.RateLimiting.WebSocket.Burst,
		logger:        logger,
		metrics:       metrics,
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "ip", ip, "error", err)
		return
	}

	sess := newSession(utils.GenerateSessionID(), ip, conn, s.sendBuffer)
	s.hub.add(sess)
	s.metrics.SessionOpened()
	s.logger.Infow("client connected", "session_id", sess.id, "ip", ip)

	go sess.writePump(s.pingInterval, s.writeTimeout)

	s.sendEvent(sess, serverEvent{
		Type:    eventConnectSuccess,
		Payload: connectSuccessPayload{Message: "connected"},
	})

	var limiter *rate.Limiter
	if s.limitMessages {
		limiter = rate.NewLimiter(s.messageRate, s.messageBurst)
	}

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	for {
		var evt clientEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read error", "session_id", sess.id, "error", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))

		if limiter != nil && !limiter.Allow() {
			s.ack(sess, evt.ID, ackPayload{Success: false, Message: "rate limit exceeded"})
			continue
		}

		s.dispatch(r.Context(), sess, evt)
	}

	// Disconnect releases the session and nothing else.
	s.hub.remove(sess.id)
	s.metrics.SessionClosed()
	s.logger.Infow("client disconnected", "session_id", sess.id, "ip", ip)
}

func (s *WebSocketServer) dispatch(ctx context.Context, sess *session, evt clientEvent) {
	ctx, span := tracing.TraceOperation(ctx, "gateway."+evt.Type)
	defer span.End()

	switch evt.Type {
	case eventLoginUser:
		s.handleLogin(ctx, sess, evt)
	case eventGetMessage:
		s.handleGetMessage(ctx, sess, evt)
	case eventSendMessage:
		s.handleSendMessage(ctx, sess, evt)
	case eventMuteUser:
		s.handleMuteUser(ctx, sess, evt)
	case eventCheckAdminStatus:
		s.handleCheckAdminStatus(ctx, sess, evt)
	case eventBanUser:
		s.handleBanUser(ctx, sess, evt)
	default:
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "unknown event type"})
	}
}

func (s *WebSocketServer) handleLogin(ctx context.Context, sess *session, evt clientEvent) {
	var payload loginPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	if err := s.chat.Login(ctx, payload.Username, sess.ip); err != nil {
		s.ackError(sess, evt.ID, err)
		return
	}
	s.ack(sess, evt.ID, ackPayload{Success: true, Message: "logged in"})
}

func (s *WebSocketServer) handleGetMessage(ctx context.Context, sess *session, evt clientEvent) {
	var payload getMessagePayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	var before *time.Time
	if payload.Before != nil && *payload.Before != "" {
		t, err := utils.ParseTimestamp(*payload.Before)
		if err != nil {
			s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid before timestamp"})
			return
		}
		before = &t
	}

	messages, err := s.chat.GetMessages(ctx, sess.ip, before)
	if err != nil {
		s.ackError(sess, evt.ID, err)
		return
	}

	// The page goes to the requesting session only; the ack follows it.
	s.sendEvent(sess, serverEvent{Type: eventMessages, Payload: messages})
	s.ack(sess, evt.ID, ackPayload{Success: true, Message: "messages retrieved"})
}

func (s *WebSocketServer) handleSendMessage(ctx context.Context, sess *session, evt clientEvent) {
	var payload sendMessagePayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	if _, err := s.chat.SendMessage(ctx, payload.Content, payload.Sender, payload.Color, payload.Type); err != nil {
		s.ackError(sess, evt.ID, err)
		return
	}
	s.ack(sess, evt.ID, ackPayload{Success: true, Message: "message sent"})
}

func (s *WebSocketServer) handleMuteUser(ctx context.Context, sess *session, evt clientEvent) {
	var payload muteUserPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	if err := s.chat.MuteUser(ctx, payload.Executor, payload.Username, payload.Duration); err != nil {
		s.ackError(sess, evt.ID, err)
		return
	}
	s.ack(sess, evt.ID, ackPayload{Success: true, Message: "user muted"})
}

func (s *WebSocketServer) handleCheckAdminStatus(ctx context.Context, sess *session, evt clientEvent) {
	var payload checkAdminPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	isAdmin, err := s.chat.CheckAdminStatus(ctx, payload.Username, sess.ip)
	if err != nil {
		s.logger.Errorw("admin status check failed", "username", payload.Username, "error", err)
		isAdmin = false
	}
	s.ack(sess, evt.ID, adminStatusPayload{IsAdmin: isAdmin})
}

func (s *WebSocketServer) handleBanUser(ctx context.Context, sess *session, evt clientEvent) {
	var payload banUserPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		s.ack(sess, evt.ID, ackPayload{Success: false, Message: "invalid payload"})
		return
	}

	if err := s.chat.BanUser(ctx, payload.Executor, payload.Username, payload.Reason); err != nil {
		s.ackError(sess, evt.ID, err)
		return
	}
	s.ack(sess, evt.ID, ackPayload{Success: true, Message: "user banned"})
}

func (s *WebSocketServer) ack(sess *session, id string, payload interface{}) {
	s.sendEvent(sess, serverEvent{Type: eventAck, ID: id, Payload: payload})
}

// ackError maps a service failure onto the ack contract: validation and
// authorization failures carry their message, backend failures are reported
// generically and logged.
func (s *WebSocketServer) ackError(sess *session, id string, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		s.ack(sess, id, ackPayload{Success: false, Message: appErr.Message})
		return
	}
	s.logger.Errorw("operation failed", "session_id", sess.id, "error", err)
	s.ack(sess, id, ackPayload{Success: false, Message: "operation failed"})
}

func (s *WebSocketServer) sendEvent(sess *session, evt serverEvent) {
	frame, err := json.Marshal(evt)
	if err != nil {
		s.logger.Errorw("failed to marshal event", "type", evt.Type, "error", err)
		return
	}
	if !sess.enqueue(frame) {
		s.metrics.FrameDropped()
	}
}

// clientIP extracts the requester's address, preferring X-Forwarded-For
// when the relay sits behind a proxy. The header may carry the whole proxy
// chain; the first entry is the originating client, which is also what the
// HTTP surface resolves, so both ingress paths bind the same IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
