package app

import (
	"encoding/json"
	"sync"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"
)

// DeliveryReport summarises one broadcast. Failed lists the IDs of
// connections that were evicted because their queue was full or closed.
type DeliveryReport struct {
	Delivered int
	Failed    []string
}

// Hub fans events out to registered connections. A single mutex serialises
// every broadcast so all connections observe events in the same order.
// Delivery is best effort per connection, a slow receiver is evicted instead
// of stalling the room.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
}

// NewHub creates a hub over the given registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Attach registers a connection so following broadcasts reach it.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registry.Register(conn)
}

// Detach removes a connection and closes its outbound queue. Safe to call
// more than once.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evict(conn)
}

// evict must run with the hub locked.
func (h *Hub) evict(conn *Connection) {
	if conn.dead {
		return
	}
	conn.dead = true
	h.registry.Deregister(conn)
	conn.closeSend()
}

// Broadcast sends an event to every connection except exclude. Returns what
// was delivered, failures only remove the failing connection.
func (h *Hub) Broadcast(event string, data interface{}, exclude *Connection) DeliveryReport {
	return h.broadcast(event, data, func(c *Connection) bool { return c == exclude })
}

// BroadcastExceptUser sends an event to every connection not owned by
// memberID. Used for typing so the sender's other tabs stay quiet too.
func (h *Hub) BroadcastExceptUser(event string, data interface{}, memberID string) DeliveryReport {
	return h.broadcast(event, data, func(c *Connection) bool { return c.MemberID == memberID })
}

func (h *Hub) broadcast(event string, data interface{}, skip func(*Connection) bool) DeliveryReport {
	frame, err := json.Marshal(domain.OutEnvelope{Event: event, Data: data})
	if err != nil {
		logger.Log.Errorf("marshal "+event+" event", err)
		return DeliveryReport{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var report DeliveryReport
	for _, conn := range h.registry.Snapshot() {
		if conn.dead || skip(conn) {
			continue
		}
		select {
		case conn.send <- frame:
			report.Delivered++
		default:
			logger.Log.Warn("evicting slow connection " + conn.ID + " of user " + conn.MemberID)
			h.evict(conn)
			report.Failed = append(report.Failed, conn.ID)
		}
	}
	return report
}

// SendTo queues an event for a single connection. Returns false and evicts
// the connection when its queue is full or already closed.
func (h *Hub) SendTo(conn *Connection, event string, data interface{}) bool {
	frame, err := json.Marshal(domain.OutEnvelope{Event: event, Data: data})
	if err != nil {
		logger.Log.Errorf("marshal "+event+" event", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if conn.dead {
		return false
	}
	select {
	case conn.send <- frame:
		return true
	default:
		h.evict(conn)
		return false
	}
}
