package app

import (
	"context"
	"strings"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	errprocess "realtime_chat_service/pkg/err"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// MessageUseCase defines chat message operations.
type MessageUseCase interface {
	Create(ctx context.Context, memberID, username, content string) (*domain.Message, error)
	// ListMessages pages history newest first. before selects messages
	// created strictly before the cursor.
	ListMessages(ctx context.Context, limit int, before *time.Time) (*domain.MessagePage, error)
	Edit(ctx context.Context, messageID, memberID, content string) (*domain.Message, error)
	SoftDelete(ctx context.Context, messageID, memberID string) (*domain.Message, error)
}

type messageUseCase struct {
	msgRepo repository.MessageRepository
}

// NewMessageUseCase creates a MessageUseCase over the given repository.
func NewMessageUseCase(msgRepo repository.MessageRepository) MessageUseCase {
	return &messageUseCase{msgRepo: msgRepo}
}

func (m *messageUseCase) Create(ctx context.Context, memberID, username, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errprocess.Set("message content is empty")
	}
	if len([]rune(content)) > domain.MaxMessageLength {
		return nil, errprocess.Set("message content exceeds limit")
	}
	msg := &domain.Message{
		ID:        uuid.NewString(),
		UserID:    memberID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *messageUseCase) ListMessages(ctx context.Context, limit int, before *time.Time) (*domain.MessagePage, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	// fetch one extra row to learn whether another page exists
	msgs, err := m.msgRepo.FindPage(ctx, int64(limit)+1, before)
	if err != nil {
		return nil, err
	}
	page := &domain.MessagePage{}
	if len(msgs) > limit {
		msgs = msgs[:limit]
		cursor := msgs[limit-1].CreatedAt
		page.NextCursor = &cursor
	}
	page.Messages = msgs
	return page, nil
}

func (m *messageUseCase) Edit(ctx context.Context, messageID, memberID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errprocess.Set("message content is empty")
	}
	if len([]rune(content)) > domain.MaxMessageLength {
		return nil, errprocess.Set("message content exceeds limit")
	}
	return m.msgRepo.UpdateContent(ctx, messageID, memberID, content, time.Now().UTC())
}

func (m *messageUseCase) SoftDelete(ctx context.Context, messageID, memberID string) (*domain.Message, error) {
	return m.msgRepo.MarkDeleted(ctx, messageID, memberID)
}
