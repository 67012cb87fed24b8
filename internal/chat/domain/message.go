package domain

import (
	"errors"
	"time"
)

var (
	// ErrMessageNotFound message does not exist or is already deleted
	ErrMessageNotFound = errors.New("message not found")
	// ErrNotMessageOwner caller does not own the message
	ErrNotMessageOwner = errors.New("not the message owner")
)

// Message is a chat message as stored and as broadcast in new_message.
type Message struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Username  string     `bson:"username" json:"username"`
	Content   string     `bson:"content" json:"content"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at" json:"updated_at"`
	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
}

// MessagePage is one page of history plus the cursor of the next page.
type MessagePage struct {
	Messages   []Message  `json:"messages"`
	NextCursor *time.Time `json:"next_cursor"`
}
