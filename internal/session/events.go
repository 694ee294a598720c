package session

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cdpsession/engine/pkg/model"
)

// registerRoutes wires every event method this engine consumes to the
// projection that owns it, per spec.md §4.2's routing table plus the two
// supplemental rows (Log.entryAdded, ServiceWorker.worker*Updated) and the
// facade's own DOM.documentUpdated handler.
func (s *Session) registerRoutes() {
	s.router.On("Debugger.scriptParsed", s.onScriptParsed)
	s.router.On("Debugger.paused", s.onPaused)
	s.router.On("Debugger.resumed", s.onResumed)
	s.router.On("Debugger.breakpointResolved", s.onBreakpointResolved)

	s.router.On("Runtime.consoleAPICalled", s.onConsoleAPICalled)
	s.router.On("Runtime.exceptionThrown", s.onExceptionThrown)

	s.router.On("Network.requestWillBeSent", s.onRequestWillBeSent)
	s.router.On("Network.responseReceived", s.onResponseReceived)
	s.router.On("Network.loadingFinished", s.onLoadingFinished)
	s.router.On("Network.loadingFailed", s.onLoadingFailed)

	s.router.On("Fetch.requestPaused", s.onRequestPaused)

	s.router.On("Log.entryAdded", s.onLogEntryAdded)

	s.router.On("ServiceWorker.workerRegistrationUpdated", s.onWorkerRegistrationUpdated)
	s.router.On("ServiceWorker.workerVersionUpdated", s.onWorkerVersionUpdated)

	s.router.On("DOM.documentUpdated", s.onDocumentUpdated)
}

func (s *Session) logDecodeError(method string, err error) {
	s.logger.Warn("session: failed to decode event params, dropping", zap.String("method", method), zap.Error(err))
}

type scriptParsedParams struct {
	ScriptID            string `json:"scriptId"`
	URL                 string `json:"url"`
	StartLine           int    `json:"startLine"`
	StartColumn         int    `json:"startColumn"`
	EndLine             int    `json:"endLine"`
	EndColumn           int    `json:"endColumn"`
	ExecutionContextID  int    `json:"executionContextId"`
	Hash                string `json:"hash"`
	IsModule            bool   `json:"isModule"`
	SourceMapURL        string `json:"sourceMapURL"`
}

func (s *Session) onScriptParsed(raw []byte) {
	var p scriptParsedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Debugger.scriptParsed", err)
		return
	}
	s.scripts.OnScriptParsed(model.ScriptInfo{
		ScriptID:            p.ScriptID,
		URL:                 p.URL,
		StartLine:           p.StartLine,
		StartColumn:         p.StartColumn,
		EndLine:             p.EndLine,
		EndColumn:           p.EndColumn,
		ExecutionContextID:  p.ExecutionContextID,
		Hash:                p.Hash,
		IsModule:            p.IsModule,
		SourceMapURL:        p.SourceMapURL,
	})
}

type pausedParams struct {
	CallFrames     []model.CallFrame `json:"callFrames"`
	Reason         string            `json:"reason"`
	Data           json.RawMessage   `json:"data"`
	HitBreakpoints []string          `json:"hitBreakpoints"`
	AsyncStackTrace json.RawMessage  `json:"asyncStackTrace"`
}

func (s *Session) onPaused(raw []byte) {
	var p pausedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Debugger.paused", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPauseEvent()
	}
	s.debug.OnPaused(p.Reason, p.CallFrames, p.HitBreakpoints, p.Data, p.AsyncStackTrace)
}

func (s *Session) onResumed([]byte) {
	if s.metrics != nil {
		s.metrics.RecordResumeEvent()
	}
	s.debug.OnResumed()
}

type breakpointResolvedParams struct {
	BreakpointID string         `json:"breakpointId"`
	Location     model.Location `json:"location"`
}

func (s *Session) onBreakpointResolved(raw []byte) {
	var p breakpointResolvedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Debugger.breakpointResolved", err)
		return
	}
	s.debug.OnBreakpointResolved(p.BreakpointID, p.Location)
}

type consoleAPICalledParams struct {
	Type      string            `json:"type"`
	Args      []json.RawMessage `json:"args"`
	Timestamp float64           `json:"timestamp"`
	StackTrace *struct {
		CallFrames []struct {
			ScriptID     string `json:"scriptId"`
			LineNumber   int    `json:"lineNumber"`
			ColumnNumber int    `json:"columnNumber"`
		} `json:"callFrames"`
	} `json:"stackTrace"`
}

func (s *Session) onConsoleAPICalled(raw []byte) {
	var p consoleAPICalledParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Runtime.consoleAPICalled", err)
		return
	}
	var loc *model.Location
	if p.StackTrace != nil && len(p.StackTrace.CallFrames) > 0 {
		f := p.StackTrace.CallFrames[0]
		loc = &model.Location{ScriptID: f.ScriptID, LineNumber: f.LineNumber, ColumnNumber: f.ColumnNumber}
	}
	s.console.OnConsoleAPICalled(p.Type, p.Args, loc, p.Timestamp)
}

type exceptionThrownParams struct {
	Timestamp        float64         `json:"timestamp"`
	ExceptionDetails json.RawMessage `json:"exceptionDetails"`
}

func (s *Session) onExceptionThrown(raw []byte) {
	var p exceptionThrownParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Runtime.exceptionThrown", err)
		return
	}
	s.console.OnExceptionThrown(model.CollectedException{
		Timestamp:       p.Timestamp,
		ExceptionDetail: p.ExceptionDetails,
	})
}

type networkRequestWillBeSentParams struct {
	RequestID string  `json:"requestId"`
	Timestamp float64 `json:"timestamp"`
	Type      string  `json:"type"`
	Request   struct {
		URL    string `json:"url"`
		Method string `json:"method"`
	} `json:"request"`
}

type networkResponseReceivedParams struct {
	RequestID string `json:"requestId"`
	Response  struct {
		Status     int    `json:"status"`
		StatusText string `json:"statusText"`
		MimeType   string `json:"mimeType"`
	} `json:"response"`
}

type networkLoadingFinishedParams struct {
	RequestID         string  `json:"requestId"`
	Timestamp         float64 `json:"timestamp"`
	EncodedDataLength float64 `json:"encodedDataLength"`
}

type networkLoadingFailedParams struct {
	RequestID string  `json:"requestId"`
	Timestamp float64 `json:"timestamp"`
	ErrorText string  `json:"errorText"`
	Canceled  bool    `json:"canceled"`
}

func (s *Session) onRequestWillBeSent(raw []byte) {
	var p networkRequestWillBeSentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Network.requestWillBeSent", err)
		return
	}
	s.network.OnRequestWillBeSent(p.RequestID, p.Request.URL, p.Request.Method, p.Type, p.Timestamp)
}

func (s *Session) onResponseReceived(raw []byte) {
	var p networkResponseReceivedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Network.responseReceived", err)
		return
	}
	s.network.OnResponseReceived(p.RequestID, p.Response.Status, p.Response.StatusText, p.Response.MimeType)
}

func (s *Session) onLoadingFinished(raw []byte) {
	var p networkLoadingFinishedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Network.loadingFinished", err)
		return
	}
	s.network.OnLoadingFinished(p.RequestID, p.Timestamp, p.EncodedDataLength)
}

func (s *Session) onLoadingFailed(raw []byte) {
	var p networkLoadingFailedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Network.loadingFailed", err)
		return
	}
	s.network.OnLoadingFailed(p.RequestID, p.Timestamp, p.ErrorText, p.Canceled)
}

type requestPausedParams struct {
	RequestID string `json:"requestId"`
	Request   struct {
		URL      string            `json:"url"`
		Method   string            `json:"method"`
		Headers  map[string]string `json:"headers"`
		PostData string            `json:"postData"`
	} `json:"request"`
	ResourceType string `json:"resourceType"`
}

func (s *Session) onRequestPaused(raw []byte) {
	var p requestPausedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Fetch.requestPaused", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordFetchPaused()
	}
	s.fetch.OnRequestPaused(p.RequestID, p.Request.URL, p.Request.Method, p.ResourceType, p.Request.Headers, p.Request.PostData)
}

type logEntryAddedParams struct {
	Entry model.LogEntry `json:"entry"`
}

func (s *Session) onLogEntryAdded(raw []byte) {
	var p logEntryAddedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("Log.entryAdded", err)
		return
	}
	s.logs.Add(p.Entry)
}

type workerRegistrationUpdatedParams struct {
	Registrations []struct {
		RegistrationID string `json:"registrationId"`
		ScopeURL       string `json:"scopeURL"`
		IsDeleted      bool   `json:"isDeleted"`
	} `json:"registrations"`
}

func (s *Session) onWorkerRegistrationUpdated(raw []byte) {
	var p workerRegistrationUpdatedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("ServiceWorker.workerRegistrationUpdated", err)
		return
	}
	for _, r := range p.Registrations {
		s.workers.Upsert(model.WorkerInfo{ID: r.RegistrationID, ScopeURL: r.ScopeURL, Deleted: r.IsDeleted})
	}
}

type workerVersionUpdatedParams struct {
	Versions []struct {
		VersionID     string `json:"versionId"`
		RegistrationID string `json:"registrationId"`
		ScopeURL      string `json:"scriptURL"`
		RunningStatus string `json:"runningStatus"`
		Status        string `json:"status"`
	} `json:"versions"`
}

func (s *Session) onWorkerVersionUpdated(raw []byte) {
	var p workerVersionUpdatedParams
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logDecodeError("ServiceWorker.workerVersionUpdated", err)
		return
	}
	for _, v := range p.Versions {
		id := v.RegistrationID
		if id == "" {
			id = v.VersionID
		}
		s.workers.Upsert(model.WorkerInfo{
			ID:            id,
			VersionID:     v.VersionID,
			ScopeURL:      v.ScopeURL,
			Status:        v.Status,
			RunningStatus: v.RunningStatus,
		})
	}
}

func (s *Session) onDocumentUpdated([]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasDocumentNodeID = false
	s.documentNodeID = 0
}
