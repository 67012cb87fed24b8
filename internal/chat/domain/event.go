package domain

import (
	"encoding/json"
	"time"
)

// Client to server event names.
const (
	// EventSendMessage websocket event send_message
	EventSendMessage = "send_message"
	// EventTyping websocket event typing
	EventTyping = "typing"
	// EventPing websocket event ping
	EventPing = "ping"
)

// Server to client event names.
const (
	// EventNewMessage websocket event new_message
	EventNewMessage = "new_message"
	// EventMessageEdited websocket event message_edited
	EventMessageEdited = "message_edited"
	// EventMessageDeleted websocket event message_deleted
	EventMessageDeleted = "message_deleted"
	// EventUserJoined websocket event user_joined
	EventUserJoined = "user_joined"
	// EventUserLeft websocket event user_left
	EventUserLeft = "user_left"
	// EventUserTyping websocket event user_typing
	EventUserTyping = "user_typing"
	// EventPong websocket event pong
	EventPong = "pong"
	// EventError websocket event error
	EventError = "error"
)

// MaxMessageLength caps send_message content.
const MaxMessageLength = 2000

// Envelope is the wire format of every inbound frame: an event name plus an
// event specific data object.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutEnvelope is the wire format of every outbound frame.
type OutEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// SendMessageData is the payload of a send_message event.
type SendMessageData struct {
	Content string `json:"content"`
}

// NewMessagePayload is the payload of a new_message event.
type NewMessagePayload struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	IsDeleted bool       `json:"is_deleted"`
}

// MessageEditedPayload is the payload of a message_edited event.
type MessageEditedPayload struct {
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageDeletedPayload is the payload of a message_deleted event.
type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
}

// PresencePayload is the payload of user_joined, user_left and user_typing.
type PresencePayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ErrorPayload is the payload of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EmptyPayload is the payload of ping and pong.
type EmptyPayload struct{}
