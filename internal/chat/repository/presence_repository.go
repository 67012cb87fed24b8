package repository

import (
	"context"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"

	"github.com/go-redis/redis/v8"
)

// PresenceStore tracks per user connection counts and answers who is online.
// Only the 0 to 1 and 1 to 0 edges produce a transition, additional
// connections of an already online user are silent.
type PresenceStore interface {
	OnConnect(ctx context.Context, memberID, username string) (domain.PresenceTransition, error)
	OnDisconnect(ctx context.Context, memberID string) (domain.PresenceTransition, error)
	ListOnline(ctx context.Context) ([]domain.OnlineUser, error)
}

const (
	presenceCountsKey    = "presence:conn_counts"
	presenceJoinOrderKey = "presence:join_order"
	presenceUsernamesKey = "presence:usernames"
)

type redisPresenceStore struct {
	rdb *redis.Client
}

// NewRedisPresenceStore creates a PresenceStore backed by redis so that
// several service instances share one online list.
func NewRedisPresenceStore(rdb *redis.Client) PresenceStore {
	return &redisPresenceStore{rdb: rdb}
}

func (p *redisPresenceStore) OnConnect(ctx context.Context, memberID, username string) (domain.PresenceTransition, error) {
	n, err := p.rdb.HIncrBy(ctx, presenceCountsKey, memberID, 1).Result()
	if err != nil {
		return domain.TransitionNone, errprocess.Set("presence OnConnect: " + err.Error())
	}
	if n != 1 {
		return domain.TransitionNone, nil
	}
	score := float64(time.Now().UnixNano())
	if err := p.rdb.ZAddNX(ctx, presenceJoinOrderKey, &redis.Z{Score: score, Member: memberID}).Err(); err != nil {
		return domain.TransitionNone, errprocess.Set("presence OnConnect: " + err.Error())
	}
	if err := p.rdb.HSet(ctx, presenceUsernamesKey, memberID, username).Err(); err != nil {
		return domain.TransitionNone, errprocess.Set("presence OnConnect: " + err.Error())
	}
	return domain.TransitionJoined, nil
}

func (p *redisPresenceStore) OnDisconnect(ctx context.Context, memberID string) (domain.PresenceTransition, error) {
	n, err := p.rdb.HIncrBy(ctx, presenceCountsKey, memberID, -1).Result()
	if err != nil {
		return domain.TransitionNone, errprocess.Set("presence OnDisconnect: " + err.Error())
	}
	if n > 0 {
		return domain.TransitionNone, nil
	}
	pipe := p.rdb.TxPipeline()
	pipe.HDel(ctx, presenceCountsKey, memberID)
	pipe.ZRem(ctx, presenceJoinOrderKey, memberID)
	pipe.HDel(ctx, presenceUsernamesKey, memberID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.TransitionNone, errprocess.Set("presence OnDisconnect: " + err.Error())
	}
	if n < 0 {
		// disconnect without a matching connect, nothing to announce
		return domain.TransitionNone, nil
	}
	return domain.TransitionLeft, nil
}

func (p *redisPresenceStore) ListOnline(ctx context.Context) ([]domain.OnlineUser, error) {
	ids, err := p.rdb.ZRange(ctx, presenceJoinOrderKey, 0, -1).Result()
	if err != nil {
		return nil, errprocess.Set("presence ListOnline: " + err.Error())
	}
	users := make([]domain.OnlineUser, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	names, err := p.rdb.HMGet(ctx, presenceUsernamesKey, ids...).Result()
	if err != nil {
		return nil, errprocess.Set("presence ListOnline: " + err.Error())
	}
	for i, id := range ids {
		name, ok := names[i].(string)
		if !ok {
			continue
		}
		users = append(users, domain.OnlineUser{ID: id, Username: name})
	}
	return users, nil
}

type memoryPresenceEntry struct {
	username string
	count    int
}

type memoryPresenceStore struct {
	mu      sync.Mutex
	entries map[string]*memoryPresenceEntry
	order   []string
}

// NewMemoryPresenceStore creates an in process PresenceStore for single
// instance deployments and tests.
func NewMemoryPresenceStore() PresenceStore {
	return &memoryPresenceStore{entries: make(map[string]*memoryPresenceEntry)}
}

func (p *memoryPresenceStore) OnConnect(_ context.Context, memberID, username string) (domain.PresenceTransition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[memberID]; ok {
		e.count++
		return domain.TransitionNone, nil
	}
	p.entries[memberID] = &memoryPresenceEntry{username: username, count: 1}
	p.order = append(p.order, memberID)
	return domain.TransitionJoined, nil
}

func (p *memoryPresenceStore) OnDisconnect(_ context.Context, memberID string) (domain.PresenceTransition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[memberID]
	if !ok {
		return domain.TransitionNone, nil
	}
	e.count--
	if e.count > 0 {
		return domain.TransitionNone, nil
	}
	delete(p.entries, memberID)
	for i, id := range p.order {
		if id == memberID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return domain.TransitionLeft, nil
}

func (p *memoryPresenceStore) ListOnline(_ context.Context) ([]domain.OnlineUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	users := make([]domain.OnlineUser, 0, len(p.order))
	for _, id := range p.order {
		users = append(users, domain.OnlineUser{ID: id, Username: p.entries[id].username})
	}
	return users, nil
}
