package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// Session lifecycle states. Transitions only move forward.
const (
	stateConnecting int32 = iota
	stateActive
	stateClosing
	stateClosed
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// maxProtocolViolations closes a connection that keeps sending frames
	// the server cannot parse.
	maxProtocolViolations = 8
)

const (
	errMsgTooLong      = "Message exceeds 2000 character limit"
	errMsgRateLimited  = "Rate limit exceeded. Please slow down."
	errMsgSaveFailed   = "Failed to save message"
	errMsgUnknownEvent = "Unknown event"
	errMsgBadPayload   = "Invalid payload"
)

// ChatMember is what the session needs to know about an authenticated user.
type ChatMember struct {
	ID       string
	Username string
	Active   bool
}

// MemberDirectory resolves an authenticated member id to its profile.
type MemberDirectory interface {
	Lookup(ctx context.Context, memberID string) (*ChatMember, error)
}

// SessionConfig tunes the heartbeat watchdog.
type SessionConfig struct {
	// HeartbeatInterval is how often clients are expected to ping.
	HeartbeatInterval time.Duration
	// HeartbeatGrace is how many missed intervals are tolerated before the
	// connection is reaped.
	HeartbeatGrace int
}

// SessionController runs the websocket lifecycle of the chat room: it
// authenticates, registers, dispatches inbound events and tears the
// connection down again.
type SessionController struct {
	hub      *Hub
	presence repository.PresenceStore
	limiter  repository.RateLimiter
	messages MessageUseCase
	members  MemberDirectory
	cfg      SessionConfig
}

// NewSessionController wires the session controller.
func NewSessionController(
	hub *Hub,
	presence repository.PresenceStore,
	limiter repository.RateLimiter,
	messages MessageUseCase,
	members MemberDirectory,
	cfg SessionConfig,
) *SessionController {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.HeartbeatGrace <= 0 {
		cfg.HeartbeatGrace = 2
	}
	return &SessionController{
		hub:      hub,
		presence: presence,
		limiter:  limiter,
		messages: messages,
		members:  members,
		cfg:      cfg,
	}
}

type chatSession struct {
	ctl        *SessionController
	sock       domain.WSConn
	conn       *Connection
	member     *ChatMember
	state      int32
	violations int
	done       chan struct{}
}

// Handle runs one websocket connection to completion. memberID comes from
// the token middleware that ran before the upgrade.
func (s *SessionController) Handle(sock domain.WSConn, memberID string) {
	sess := &chatSession{
		ctl:   s,
		sock:  sock,
		state: stateConnecting,
		done:  make(chan struct{}),
	}

	ctx := context.Background()
	member, err := s.members.Lookup(ctx, memberID)
	if err != nil || member == nil || !member.Active {
		logger.Log.Warn("websocket auth rejected for member " + memberID)
		sess.closeWithPolicyViolation("authentication failed")
		return
	}
	sess.member = member
	sess.conn = newConnection(member.ID, member.Username, sock)

	s.hub.Attach(sess.conn)
	atomic.StoreInt32(&sess.state, stateActive)

	transition, err := s.presence.OnConnect(ctx, member.ID, member.Username)
	if err != nil {
		logger.Log.Errorf("presence OnConnect for "+member.ID, err)
	}
	if transition == domain.TransitionJoined {
		s.hub.Broadcast(domain.EventUserJoined, domain.PresencePayload{UserID: member.ID, Username: member.Username}, nil)
	}

	go sess.writePump()
	go sess.watchdog()

	sess.readPump(ctx)
	sess.teardown(ctx)
}

// closeWithPolicyViolation rejects a connection before registration, no
// events are exchanged.
func (s *chatSession) closeWithPolicyViolation(reason string) {
	atomic.StoreInt32(&s.state, stateClosed)
	deadline := time.Now().Add(writeWait)
	s.sock.SetWriteDeadline(deadline)
	s.sock.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	s.sock.Close()
}

// readPump reads frames until the socket fails or the session gives up on
// the client.
func (s *chatSession) readPump(ctx context.Context) {
	for {
		_, raw, err := s.sock.ReadMessage()
		if err != nil {
			return
		}
		if !s.dispatch(ctx, raw) {
			return
		}
	}
}

// dispatch handles one inbound frame. Returns false when the connection
// should close.
func (s *chatSession) dispatch(ctx context.Context, raw []byte) bool {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return s.violation(errMsgBadPayload)
	}
	switch env.Event {
	case domain.EventSendMessage:
		return s.handleSendMessage(ctx, env.Data)
	case domain.EventTyping:
		s.ctl.hub.BroadcastExceptUser(domain.EventUserTyping,
			domain.PresencePayload{UserID: s.member.ID, Username: s.member.Username},
			s.member.ID)
		return true
	case domain.EventPing:
		s.conn.TouchHeartbeat()
		s.ctl.hub.SendTo(s.conn, domain.EventPong, domain.EmptyPayload{})
		return true
	default:
		return s.violation(errMsgUnknownEvent + ": " + env.Event)
	}
}

func (s *chatSession) handleSendMessage(ctx context.Context, data json.RawMessage) bool {
	var payload domain.SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil {
		return s.violation(errMsgBadPayload)
	}
	content := strings.TrimSpace(payload.Content)
	if content == "" {
		// silently dropped, costs no rate limit slot
		return true
	}
	if len([]rune(content)) > domain.MaxMessageLength {
		s.sendError(errMsgTooLong)
		return true
	}

	allowed, err := s.ctl.limiter.Allow(ctx, s.member.ID)
	if err != nil {
		logger.Log.Errorf("rate limiter for "+s.member.ID, err)
		s.sendError(errMsgSaveFailed)
		return true
	}
	if !allowed {
		s.sendError(errMsgRateLimited)
		return true
	}

	msg, err := s.ctl.messages.Create(ctx, s.member.ID, s.member.Username, content)
	if err != nil {
		// the rate limit slot stays consumed
		s.sendError(errMsgSaveFailed)
		return true
	}

	s.ctl.hub.Broadcast(domain.EventNewMessage, domain.NewMessagePayload{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
		IsDeleted: msg.IsDeleted,
	}, nil)
	return true
}

// violation reports a malformed frame and closes the connection after too
// many of them.
func (s *chatSession) violation(msg string) bool {
	s.violations++
	s.sendError(msg)
	if s.violations >= maxProtocolViolations {
		logger.Log.Warn("closing connection " + s.conn.ID + " after repeated protocol violations")
		return false
	}
	return true
}

func (s *chatSession) sendError(msg string) {
	s.ctl.hub.SendTo(s.conn, domain.EventError, domain.ErrorPayload{Message: msg})
}

// writePump drains the outbound queue onto the socket. It exits when the
// hub closes the queue or a write fails, closing the socket either way so
// readPump unblocks.
func (s *chatSession) writePump() {
	defer s.sock.Close()
	for frame := range s.conn.send {
		s.sock.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	// queue closed, say goodbye if the socket still works
	s.sock.SetWriteDeadline(time.Now().Add(writeWait))
	s.sock.WriteMessage(websocket.CloseMessage, []byte{})
}

// watchdog reaps the connection when the client stops pinging.
func (s *chatSession) watchdog() {
	interval := s.ctl.cfg.HeartbeatInterval
	deadline := time.Duration(s.ctl.cfg.HeartbeatGrace) * interval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if time.Since(s.conn.LastHeartbeat()) > deadline {
				logger.Log.Warn("reaping silent connection " + s.conn.ID + " of user " + s.member.ID)
				s.sock.Close()
				return
			}
		}
	}
}

// teardown runs exactly once when readPump returns, whatever the cause.
func (s *chatSession) teardown(ctx context.Context) {
	atomic.StoreInt32(&s.state, stateClosing)
	close(s.done)

	s.ctl.hub.Detach(s.conn)

	transition, err := s.ctl.presence.OnDisconnect(ctx, s.member.ID)
	if err != nil {
		logger.Log.Errorf("presence OnDisconnect for "+s.member.ID, err)
	}
	if transition == domain.TransitionLeft {
		s.ctl.hub.Broadcast(domain.EventUserLeft,
			domain.PresencePayload{UserID: s.member.ID, Username: s.member.Username}, nil)
	}

	s.sock.Close()
	atomic.StoreInt32(&s.state, stateClosed)
}
