// Package wire defines the JSON frame shapes exchanged with Chrome's
// DevTools Protocol endpoint: requests carry an id and method, responses
// carry a matching id and either a result or an error, events carry a
// method with no id. A single frame is decoded once and then routed by
// whichever of these fields is present.
package wire

import "encoding/json"

// Request is an outbound CDP command.
type Request struct {
	ID        int             `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// Error is Chrome's own error object, embedded in an inbound Frame.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Frame is any inbound message: a response (ID != 0) or an event
// (Method != ""). Chrome never sets both on the same frame.
type Frame struct {
	ID        int             `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// IsEvent reports whether the frame is an event (no correlated id).
func (f Frame) IsEvent() bool {
	return f.ID == 0 && f.Method != ""
}

// IsResponse reports whether the frame is a response to a pending request.
func (f Frame) IsResponse() bool {
	return f.ID != 0
}

// Event is the decoded (method, params) pair handed to the router's
// subscribers. Unknown fields inside Params are carried through opaquely —
// callers decode only what they need.
type Event struct {
	Method string
	Params json.RawMessage
}
