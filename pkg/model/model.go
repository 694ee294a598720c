// Package model holds the data model shared across the CDP session engine:
// pause state, breakpoints, scripts, network requests, console messages,
// interception rules and paused requests. Every identifier that originates
// from Chrome (requestId, scriptId, breakpointId, callFrameId, nodeId,
// executionContextId, objectId, targetId) is treated as an opaque string and
// passed through unchanged; nothing in this package parses or reorders them.
package model

import (
	"encoding/json"
	"time"
)

// PauseReason enumerates why the debugger paused, mirroring Debugger.paused's
// "reason" field. The engine itself keeps reasons as plain strings, so
// unknown reasons from Chrome pass through verbatim; these constants only
// name the known values.
type PauseReason string

const (
	PauseReasonAmbiguous      PauseReason = "ambiguous"
	PauseReasonAssert         PauseReason = "assert"
	PauseReasonDebugCommand   PauseReason = "debugCommand"
	PauseReasonDOM            PauseReason = "DOM"
	PauseReasonEventListener  PauseReason = "EventListener"
	PauseReasonException      PauseReason = "exception"
	PauseReasonInstrumentation PauseReason = "instrumentation"
	PauseReasonOOM            PauseReason = "OOM"
	PauseReasonOther          PauseReason = "other"
	PauseReasonPromiseRejection PauseReason = "promiseRejection"
	PauseReasonXHR            PauseReason = "XHR"
	PauseReasonStep           PauseReason = "step"
)

// CallFrame is the subset of Debugger.CallFrame fields the engine consumes.
// Fields not listed here are dropped on decode.
type CallFrame struct {
	CallFrameID      string          `json:"callFrameId"`
	FunctionName     string          `json:"functionName"`
	Location         Location        `json:"location"`
	ScopeChain       []Scope         `json:"scopeChain,omitempty"`
	This             json.RawMessage `json:"this,omitempty"`
	ReturnValue      json.RawMessage `json:"returnValue,omitempty"`
}

// Scope is a single entry of a call frame's scope chain.
type Scope struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object,omitempty"`
}

// Location identifies a position in a parsed script.
type Location struct {
	ScriptID     string `json:"scriptId"`
	LineNumber   int    `json:"lineNumber"`
	ColumnNumber int    `json:"columnNumber,omitempty"`
}

// PauseState is the variant described in spec §3: either Running, or Paused
// with the frames/reason/hit breakpoints Chrome reported. A zero value is
// the Running state.
type PauseState struct {
	Paused         bool            `json:"isPaused"`
	Reason         string          `json:"pauseReason,omitempty"`
	CallFrames     []CallFrame     `json:"callFrames,omitempty"`
	HitBreakpoints []string        `json:"hitBreakpoints,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	AsyncStack     json.RawMessage `json:"asyncStackTrace,omitempty"`
}

// ManagedBreakpoint is a breakpoint the engine is tracking. Exactly one of
// URL / URLRegex / ScriptID is set, mirroring the two set-breakpoint
// operations in §3.
type ManagedBreakpoint struct {
	ID               string   `json:"id"`
	URL              string   `json:"url,omitempty"`
	URLRegex         string   `json:"urlRegex,omitempty"`
	ScriptID         string   `json:"scriptId,omitempty"`
	LineNumber       int      `json:"lineNumber"`
	ColumnNumber     int      `json:"columnNumber,omitempty"`
	Condition        string   `json:"condition,omitempty"`
	ResolvedLocations []Location `json:"resolvedLocations,omitempty"`
	Enabled          bool     `json:"enabled"`
}

// ScriptInfo records a Debugger.scriptParsed event, indexed by ScriptID.
type ScriptInfo struct {
	ScriptID         string `json:"scriptId"`
	URL              string `json:"url"`
	StartLine        int    `json:"startLine"`
	StartColumn      int    `json:"startColumn"`
	EndLine          int    `json:"endLine"`
	EndColumn        int    `json:"endColumn"`
	ExecutionContextID int  `json:"executionContextId"`
	Hash             string `json:"hash"`
	IsModule         bool   `json:"isModule,omitempty"`
	SourceMapURL     string `json:"sourceMapURL,omitempty"`

	// source caches the result of the first GetScriptSource call. Empty
	// until populated; callers never observe this field directly.
	source    string
	hasSource bool
}

// SetSource caches the script body on first fetch.
func (s *ScriptInfo) SetSource(src string) {
	s.source = src
	s.hasSource = true
}

// Source returns the cached script body, if any has been fetched yet.
func (s *ScriptInfo) Source() (string, bool) {
	return s.source, s.hasSource
}

// Clone returns a defensive copy suitable for handing to a caller.
func (s ScriptInfo) Clone() ScriptInfo {
	cp := s
	if len(s.source) > 0 {
		cp.source = s.source
	}
	return cp
}

// RequestState is the derived variant described in spec §3.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestCompleted RequestState = "completed"
	RequestFailed    RequestState = "failed"
)

// NetworkRequest aggregates the four Network.* event classes for one
// requestId.
type NetworkRequest struct {
	RequestID         string    `json:"requestId"`
	URL               string    `json:"url"`
	Method            string    `json:"method"`
	ResourceType      string    `json:"resourceType"`
	StartTime         float64   `json:"startTime"`
	EndTime           float64   `json:"endTime,omitempty"`
	Duration          float64   `json:"durationMs,omitempty"`
	StatusCode        int       `json:"statusCode,omitempty"`
	StatusText        string    `json:"statusText,omitempty"`
	MimeType          string    `json:"mimeType,omitempty"`
	EncodedDataLength float64   `json:"encodedDataLength,omitempty"`
	Failed            bool      `json:"failed"`
	Canceled          bool      `json:"canceled,omitempty"`
	ErrorText         string    `json:"errorText,omitempty"`
	InsertedAt        time.Time `json:"-"`
}

// State derives the Pending/Completed/Failed variant from the fields above.
func (r NetworkRequest) State() RequestState {
	switch {
	case r.Failed:
		return RequestFailed
	case r.EndTime > 0:
		return RequestCompleted
	default:
		return RequestPending
	}
}

// ConsoleLevel enumerates the levels a console message can carry.
type ConsoleLevel string

const (
	LevelLog     ConsoleLevel = "log"
	LevelInfo    ConsoleLevel = "info"
	LevelWarning ConsoleLevel = "warning"
	LevelError   ConsoleLevel = "error"
	LevelDebug   ConsoleLevel = "debug"
)

// ConsoleMessage is a flattened Runtime.consoleAPICalled entry.
type ConsoleMessage struct {
	ID        int64        `json:"id"`
	Level     ConsoleLevel `json:"level"`
	Type      string       `json:"type"`
	Text      string       `json:"text"`
	Location  *Location    `json:"location,omitempty"`
	Args      []json.RawMessage `json:"args,omitempty"`
	Timestamp float64      `json:"timestamp"`
}

// CollectedException is a Runtime.exceptionThrown entry.
type CollectedException struct {
	ID              int64   `json:"id"`
	Text            string  `json:"text"`
	LineNumber      int     `json:"lineNumber"`
	ColumnNumber    int     `json:"columnNumber"`
	ScriptID        string  `json:"scriptId,omitempty"`
	URL             string  `json:"url,omitempty"`
	StackTrace      json.RawMessage `json:"stackTrace,omitempty"`
	ExceptionDetail json.RawMessage `json:"exceptionDetails,omitempty"`
	Timestamp       float64 `json:"timestamp"`
}

// InterceptAction enumerates the advisory action associated with a rule.
// The engine never auto-dispatches based on this value; the caller must
// always issue an explicit continue/fulfill/fail.
type InterceptAction string

const (
	ActionPause  InterceptAction = "pause"
	ActionModify InterceptAction = "modify"
	ActionMock   InterceptAction = "mock"
	ActionFail   InterceptAction = "fail"
)

// InterceptRule is one fetch-interception rule.
type InterceptRule struct {
	ID            string            `json:"id"`
	Pattern       string            `json:"pattern"`
	ResourceTypes []string          `json:"resourceTypes,omitempty"`
	Action        InterceptAction   `json:"action"`
	ModifyHeaders map[string]string `json:"modifyHeaders,omitempty"`
	ModifyURL     string            `json:"modifyUrl,omitempty"`
	MockResponse  *MockResponse     `json:"mockResponse,omitempty"`
	FailReason    string            `json:"failReason,omitempty"`
	Enabled       bool              `json:"enabled"`
}

// MockResponse is the canned response a "mock" rule is advertising.
type MockResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// PausedRequest is a Fetch.requestPaused snapshot awaiting a dispatch
// decision from the caller.
type PausedRequest struct {
	RequestID    string            `json:"requestId"`
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	ResourceType string            `json:"resourceType"`
	Headers      map[string]string `json:"headers,omitempty"`
	PostData     string            `json:"postData,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	MatchedRule  *InterceptRule    `json:"matchedRule,omitempty"`
}

// LogEntry is a Log.entryAdded record.
type LogEntry struct {
	Level      string  `json:"level"`
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	URL        string  `json:"url,omitempty"`
	LineNumber int     `json:"lineNumber,omitempty"`
	Timestamp  float64 `json:"timestamp"`
}

// WorkerInfo tracks a ServiceWorker registration or version.
type WorkerInfo struct {
	ID        string `json:"id"`
	ScopeURL  string `json:"scopeURL,omitempty"`
	VersionID string `json:"versionId,omitempty"`
	Status    string `json:"status,omitempty"`
	RunningStatus string `json:"runningStatus,omitempty"`
	Deleted   bool   `json:"-"`
}

// TargetInfo describes a debuggable browser target.
type TargetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Attached bool   `json:"attached"`
}
