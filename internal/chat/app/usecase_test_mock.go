package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/mock"
)

// MockMessageUseCase Mock MessageUseCase
type MockMessageUseCase struct {
	mock.Mock
}

// Create mock create message
func (m *MockMessageUseCase) Create(ctx context.Context, memberID, username, content string) (*domain.Message, error) {
	args := m.Called(ctx, memberID, username, content)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListMessages mock list messages
func (m *MockMessageUseCase) ListMessages(ctx context.Context, limit int, before *time.Time) (*domain.MessagePage, error) {
	args := m.Called(ctx, limit, before)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MessagePage), args.Error(1)
	}
	return nil, args.Error(1)
}

// Edit mock edit message
func (m *MockMessageUseCase) Edit(ctx context.Context, messageID, memberID, content string) (*domain.Message, error) {
	args := m.Called(ctx, messageID, memberID, content)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// SoftDelete mock soft delete message
func (m *MockMessageUseCase) SoftDelete(ctx context.Context, messageID, memberID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindPage mock find page
func (m *MockMessageRepository) FindPage(ctx context.Context, limit int64, before *time.Time) ([]domain.Message, error) {
	args := m.Called(ctx, limit, before)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateContent mock update content
func (m *MockMessageRepository) UpdateContent(ctx context.Context, messageID, memberID, content string, updatedAt time.Time) (*domain.Message, error) {
	args := m.Called(ctx, messageID, memberID, content, updatedAt)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkDeleted mock mark deleted
func (m *MockMessageRepository) MarkDeleted(ctx context.Context, messageID, memberID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubMemberDirectory answers websocket auth lookups from a fixed table.
type stubMemberDirectory struct {
	members map[string]*ChatMember
}

func (d *stubMemberDirectory) Lookup(_ context.Context, memberID string) (*ChatMember, error) {
	m, ok := d.members[memberID]
	if !ok {
		return nil, errors.New("no member found with given criteria")
	}
	return m, nil
}

// fakeConn is an in memory websocket connection for session tests. Frames
// pushed into in come out of ReadMessage, writes are recorded.
type fakeConn struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	frames [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-f.in:
		return websocket.TextMessage, frame, nil
	case <-f.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) push(frame string) {
	f.in <- []byte(frame)
}

func (f *fakeConn) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, b := range f.frames {
		out[i] = string(b)
	}
	return out
}
