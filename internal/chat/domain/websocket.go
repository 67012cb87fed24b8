package domain

import "time"

// WSConn is the subset of a websocket connection the chat service uses.
// Both gofiber/websocket and gorilla/websocket connections satisfy it.
type WSConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}
