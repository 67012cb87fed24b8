package app

import (
	"sync"
	"sync/atomic"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/google/uuid"
)

// sendBufferSize bounds the per connection outbound queue. A connection that
// cannot drain this many frames is considered dead.
const sendBufferSize = 256

// Connection is one registered websocket of one user. A user can hold
// several connections at the same time, each with its own outbound queue.
type Connection struct {
	ID        string
	MemberID  string
	Username  string
	CreatedAt time.Time

	sock domain.WSConn
	send chan []byte

	lastPing  int64 // unix nano, written by the read loop
	closeOnce sync.Once

	// dead is owned by the hub, see Hub.evict.
	dead bool
}

func newConnection(memberID, username string, sock domain.WSConn) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Username:  username,
		CreatedAt: time.Now(),
		sock:      sock,
		send:      make(chan []byte, sendBufferSize),
		lastPing:  time.Now().UnixNano(),
	}
}

// TouchHeartbeat records a client ping.
func (c *Connection) TouchHeartbeat() {
	atomic.StoreInt64(&c.lastPing, time.Now().UnixNano())
}

// LastHeartbeat returns the time of the last client ping, or of the
// registration when no ping arrived yet.
func (c *Connection) LastHeartbeat() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastPing))
}

func (c *Connection) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Registry tracks every live connection, grouped by user.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]*Connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]*Connection)}
}

// Register adds a connection for a user. Connections of the same user never
// replace each other.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byConn, ok := r.conns[conn.MemberID]
	if !ok {
		byConn = make(map[string]*Connection)
		r.conns[conn.MemberID] = byConn
	}
	byConn[conn.ID] = conn
}

// Deregister removes a connection. Removing an unknown connection is a
// no-op, teardown paths may race.
func (r *Registry) Deregister(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byConn, ok := r.conns[conn.MemberID]
	if !ok {
		return
	}
	delete(byConn, conn.ID)
	if len(byConn) == 0 {
		delete(r.conns, conn.MemberID)
	}
}

// ConnectionsFor returns the live connections of one user.
func (r *Registry) ConnectionsFor(memberID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byConn := r.conns[memberID]
	out := make([]*Connection, 0, len(byConn))
	for _, c := range byConn {
		out = append(out, c)
	}
	return out
}

// CountFor returns how many connections a user currently holds.
func (r *Registry) CountFor(memberID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[memberID])
}

// Len returns the total number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, byConn := range r.conns {
		n += len(byConn)
	}
	return n
}

// Snapshot returns every live connection. Iterating the snapshot never
// holds the registry lock, registrations during a broadcast are safe.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, byConn := range r.conns {
		for _, c := range byConn {
			out = append(out, c)
		}
	}
	return out
}
