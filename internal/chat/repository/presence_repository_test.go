package repository

import (
	"context"
	"sync"
	"testing"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func TestMemoryPresenceStore_EdgeTransitions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresenceStore()

	t.Run("first connection joins", func(t *testing.T) {
		tr, err := store.OnConnect(ctx, "u1", "alice")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransitionJoined, tr)
	})

	t.Run("further connections are silent", func(t *testing.T) {
		tr, err := store.OnConnect(ctx, "u1", "alice")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransitionNone, tr)
	})

	t.Run("dropping to one connection is silent", func(t *testing.T) {
		tr, err := store.OnDisconnect(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransitionNone, tr)
	})

	t.Run("dropping to zero leaves", func(t *testing.T) {
		tr, err := store.OnDisconnect(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransitionLeft, tr)
	})

	t.Run("disconnect without connect is silent", func(t *testing.T) {
		tr, err := store.OnDisconnect(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransitionNone, tr)
	})
}

func TestMemoryPresenceStore_ListOnlineKeepsJoinOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresenceStore()

	store.OnConnect(ctx, "u1", "alice")
	store.OnConnect(ctx, "u2", "bob")
	store.OnConnect(ctx, "u3", "carol")
	// a second alice tab must not move her
	store.OnConnect(ctx, "u1", "alice")

	users, err := store.ListOnline(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []domain.OnlineUser{
		{ID: "u1", Username: "alice"},
		{ID: "u2", Username: "bob"},
		{ID: "u3", Username: "carol"},
	}, users)

	// bob leaves entirely, alice is still first
	store.OnDisconnect(ctx, "u2")
	users, err = store.ListOnline(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []domain.OnlineUser{
		{ID: "u1", Username: "alice"},
		{ID: "u3", Username: "carol"},
	}, users)
}

func TestMemoryPresenceStore_ConcurrentConnects(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresenceStore()

	var wg sync.WaitGroup
	joins := make(chan domain.PresenceTransition, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := store.OnConnect(ctx, "u1", "alice")
			assert.NoError(t, err)
			joins <- tr
		}()
	}
	wg.Wait()
	close(joins)

	joined := 0
	for tr := range joins {
		if tr == domain.TransitionJoined {
			joined++
		}
	}
	assert.Equal(t, 1, joined)

	left := 0
	for i := 0; i < 32; i++ {
		tr, err := store.OnDisconnect(ctx, "u1")
		assert.NoError(t, err)
		if tr == domain.TransitionLeft {
			left++
		}
	}
	assert.Equal(t, 1, left)

	users, _ := store.ListOnline(ctx)
	assert.Empty(t, users)
}
