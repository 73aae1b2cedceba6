package rpc

import (
	"encoding/json"
	"fmt"
)

// Message is the single wire envelope used in both directions.
//
// A request carries ID and Action; a response carries ResponseID and either
// Data or Error. IDs start at 1, so a zero ResponseID means "not a response".
type Message struct {
	ID         uint64          `json:"id,omitempty"`
	ResponseID uint64          `json:"responseID,omitempty"`
	Action     string          `json:"action,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      map[string]any  `json:"error,omitempty"`
}

// IsResponse reports whether the message answers an earlier request.
func (m Message) IsResponse() bool {
	return m.ResponseID != 0
}

// Transport delivers outgoing messages to the remote counterpart.
type Transport interface {
	WriteMessage(msg Message) error
}

// Conn is a bidirectional message channel.
type Conn interface {
	Transport
	ReadMessage() (Message, error)
}

// RemoteError is returned by Send when the counterpart answers with an error object.
type RemoteError struct {
	Action string
	Fields map[string]any
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if msg, ok := e.Fields["message"].(string); ok && msg != "" {
		return fmt.Sprintf("rpc: %s failed remotely: %s", e.Action, msg)
	}
	return fmt.Sprintf("rpc: %s failed remotely", e.Action)
}

// ErrorFields exposes the remote error object for re-serialization.
func (e *RemoteError) ErrorFields() map[string]any {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out["remote_"+k] = v
	}
	out["action"] = e.Action
	return out
}
