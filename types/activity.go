package types

import "time"

// ActivityMessage represents a WebSocket activity update message
type ActivityMessage struct {
	SessionID string    `json:"sessionId"`
	Type      string    `json:"type"`              // "connect", "command", "error", "disconnect"
	Command   string    `json:"command,omitempty"` // raw command line, when applicable
	Detail    string    `json:"detail,omitempty"`  // outcome or error text
	Bytes     int64     `json:"bytes,omitempty"`   // payload bytes sent, for excerpts
	Timestamp time.Time `json:"timestamp"`         // when the event occurred
}
