package projection

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cdpsession/engine/pkg/model"
)

// DefaultMaxMessages is the bound used when none is configured.
const DefaultMaxMessages = 1000

// ConsoleState holds flattened Runtime.consoleAPICalled messages and
// Runtime.exceptionThrown records, each bounded at maxMessages with
// oldest-insertion eviction.
type ConsoleState struct {
	mu           sync.Mutex
	enabled      bool
	maxMessages  int
	nextID       int64
	messages     []model.ConsoleMessage
	exceptions   []model.CollectedException
}

// NewConsoleState returns an empty ConsoleState bounded at maxMessages (the
// default is used if maxMessages <= 0).
func NewConsoleState(maxMessages int) *ConsoleState {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &ConsoleState{maxMessages: maxMessages}
}

// SetEnabled mirrors the Runtime domain's enable/disable flag.
func (c *ConsoleState) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// consoleArg is the subset of Runtime.RemoteObject fields flattenArgs needs.
type consoleArg struct {
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// flattenArgs renders console arguments the way spec.md §3 describes:
// strings/numbers/booleans/undefined literally, objects by description,
// anything else falls back to "[type]".
func flattenArgs(args []json.RawMessage) string {
	rendered := make([]string, 0, len(args))
	for _, raw := range args {
		var a consoleArg
		if err := json.Unmarshal(raw, &a); err != nil {
			rendered = append(rendered, "[unknown]")
			continue
		}
		switch a.Type {
		case "undefined":
			rendered = append(rendered, "undefined")
		case "string":
			var s string
			_ = json.Unmarshal(a.Value, &s)
			rendered = append(rendered, s)
		case "number", "boolean":
			rendered = append(rendered, string(a.Value))
		default:
			if a.Description != "" {
				rendered = append(rendered, a.Description)
			} else {
				rendered = append(rendered, fmt.Sprintf("[%s]", a.Type))
			}
		}
	}
	if len(rendered) == 0 {
		return ""
	}
	out := rendered[0]
	for _, r := range rendered[1:] {
		out += " " + r
	}
	return out
}

// OnConsoleAPICalled flattens args into text, derives level from callType,
// and stores the message.
func (c *ConsoleState) OnConsoleAPICalled(callType string, args []json.RawMessage, loc *model.Location, timestamp float64) model.ConsoleMessage {
	level := consoleLevelFromType(callType)
	text := flattenArgs(args)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	msg := model.ConsoleMessage{
		ID:        c.nextID,
		Level:     level,
		Type:      callType,
		Text:      text,
		Location:  loc,
		Args:      args,
		Timestamp: timestamp,
	}
	c.messages = append(c.messages, msg)
	if len(c.messages) > c.maxMessages {
		c.messages = c.messages[len(c.messages)-c.maxMessages:]
	}
	return msg
}

func consoleLevelFromType(callType string) model.ConsoleLevel {
	switch callType {
	case "error", "assert":
		return model.LevelError
	case "warning":
		return model.LevelWarning
	case "info":
		return model.LevelInfo
	case "debug":
		return model.LevelDebug
	default:
		return model.LevelLog
	}
}

// OnExceptionThrown stores a collected exception.
func (c *ConsoleState) OnExceptionThrown(ex model.CollectedException) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	ex.ID = c.nextID
	c.exceptions = append(c.exceptions, ex)
	if len(c.exceptions) > c.maxMessages {
		c.exceptions = c.exceptions[len(c.exceptions)-c.maxMessages:]
	}
}

// GetMessages returns defensive copies of every stored console message.
func (c *ConsoleState) GetMessages() []model.ConsoleMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	return append([]model.ConsoleMessage(nil), c.messages...)
}

// GetExceptions returns defensive copies of every stored exception.
func (c *ConsoleState) GetExceptions() []model.CollectedException {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	return append([]model.CollectedException(nil), c.exceptions...)
}

// Reset clears every stored message and exception, used by Session.Reset().
func (c *ConsoleState) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.exceptions = nil
	c.nextID = 0
}
