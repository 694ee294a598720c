package transport

import (
	"errors"
	"fmt"
)

// Connection errors - returned once the socket is gone
var (
	ErrConnectionClosed = errors.New("transport: connection closed")
	ErrNotConnected     = errors.New("transport: not connected")
	ErrDecode           = errors.New("transport: failed to decode frame")
)

// Timeout is returned when a send's deadline elapses before a response
// arrives.
type Timeout struct {
	Method string
	ID     int
	Ms     int
}

func (t *Timeout) Error() string {
	return fmt.Sprintf("transport: %s (id=%d) timed out after %dms", t.Method, t.ID, t.Ms)
}

// ProtocolError wraps Chrome's own {code, message, data} error object.
type ProtocolError struct {
	Code    int
	Message string
	Data    string
}

func (e *ProtocolError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("transport: protocol error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("transport: protocol error %d: %s", e.Code, e.Message)
}
