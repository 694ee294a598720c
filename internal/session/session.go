// Package session implements the facade that turns a raw Transport
// connection, the event router, and the five domain projections into a
// coherent debugging session: pause-aware evaluation, breakpoint
// management, domain enable/disable, and target switching.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cdpsession/engine/internal/config"
	"github.com/cdpsession/engine/internal/fetch"
	"github.com/cdpsession/engine/internal/metrics"
	"github.com/cdpsession/engine/internal/projection"
	"github.com/cdpsession/engine/internal/router"
	"github.com/cdpsession/engine/internal/transport"
	"github.com/cdpsession/engine/pkg/model"
)

// Session owns one CDP connection and the in-memory projections built from
// its event stream. It is safe for concurrent use; callers from multiple
// goroutines may issue evaluate/breakpoint/query calls at once.
type Session struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	cfg     config.Config

	transport *transport.Transport
	router    *router.Router

	debug   *projection.DebugState
	scripts *projection.ScriptRegistry
	network *projection.NetworkState
	console *projection.ConsoleState
	fetch   *fetch.Interceptor
	logs    *projection.LogBuffer
	workers *projection.WorkerState

	mu                sync.Mutex
	httpBase          string
	documentNodeID    int
	hasDocumentNodeID bool
	activeSessionID   string
	targets           map[string]model.TargetInfo
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics attaches a metrics recorder; recording is a no-op otherwise.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New builds a Session with projections sized from cfg but does not yet
// hold any connection; call Connect to dial.
func New(cfg config.Config, opts ...Option) *Session {
	s := &Session{
		logger:  zap.NewNop(),
		cfg:     cfg,
		debug:   projection.NewDebugState(),
		scripts: projection.NewScriptRegistry(),
		network: projection.NewNetworkState(cfg.MaxRequests),
		console: projection.NewConsoleState(cfg.MaxMessages),
		fetch:   fetch.New(),
		logs:    projection.NewLogBuffer(cfg.LogBufferCap),
		workers: projection.NewWorkerState(),
		targets: make(map[string]model.TargetInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = router.New(s.logger)
	s.registerRoutes()
	return s
}

// Debug, Scripts, Network, Console, Fetch, Logs and Workers expose the
// underlying projections directly for queries; the facade only wraps the
// operations whose semantics go beyond a plain projection read.
func (s *Session) Debug() *projection.DebugState       { return s.debug }
func (s *Session) Scripts() *projection.ScriptRegistry { return s.scripts }
func (s *Session) Network() *projection.NetworkState   { return s.network }
func (s *Session) Console() *projection.ConsoleState   { return s.console }
func (s *Session) Fetch() *fetch.Interceptor           { return s.fetch }
func (s *Session) Logs() *projection.LogBuffer         { return s.logs }
func (s *Session) Workers() *projection.WorkerState    { return s.workers }

// Connect dials wsURL and wires the transport's event callback to the
// router. The caller typically obtains wsURL from internal/launcher.
func (s *Session) Connect(ctx context.Context, wsURL string) error {
	t, err := transport.Dial(ctx, wsURL,
		transport.WithLogger(s.logger),
		transport.WithTimeout(time.Duration(s.cfg.TimeoutMs)*time.Millisecond),
		transport.WithEventHandler(s.router.Dispatch),
	)
	if err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
	return nil
}

// Attach is like Connect but also records the HTTP base used to discover
// wsURL, so it survives target switches for ListTargets to reuse.
func (s *Session) Attach(ctx context.Context, httpBase, wsURL string) error {
	if err := s.Connect(ctx, wsURL); err != nil {
		return err
	}
	s.mu.Lock()
	s.httpBase = httpBase
	s.mu.Unlock()
	return nil
}

// send issues a CDP command on the active target session, if one has been
// selected via SwitchTarget, otherwise on the top-level browser session.
func (s *Session) send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	s.mu.Lock()
	t := s.transport
	sessionID := s.activeSessionID
	s.mu.Unlock()
	if t == nil {
		return nil, transport.ErrNotConnected
	}
	if sessionID == "" {
		return t.Send(ctx, method, params)
	}
	return t.SendForSession(ctx, sessionID, method, params)
}

// EnableDomain enables a CDP domain and mirrors the flag into the
// projection that owns it. domain is the CDP domain name ("Debugger",
// "Network", "Runtime", "Fetch", "Log", "ServiceWorker").
func (s *Session) EnableDomain(ctx context.Context, domain string) error {
	if domain == "Fetch" {
		return s.EnableFetch(ctx)
	}

	if _, err := s.send(ctx, domain+".enable", nil); err != nil {
		return fmt.Errorf("session: enable %s: %w", domain, err)
	}
	s.setDomainEnabled(domain, true)

	if domain == "Debugger" && s.cfg.AsyncStackTraceDepth > 0 {
		if _, err := s.send(ctx, "Debugger.setAsyncCallStackDepth", map[string]any{"maxDepth": s.cfg.AsyncStackTraceDepth}); err != nil {
			return fmt.Errorf("session: set async call stack depth: %w", err)
		}
		s.debug.SetAsyncStackTraceDepth(s.cfg.AsyncStackTraceDepth)
	}
	return nil
}

// DisableDomain disables a CDP domain and mirrors the flag into its
// projection.
func (s *Session) DisableDomain(ctx context.Context, domain string) error {
	if _, err := s.send(ctx, domain+".disable", nil); err != nil {
		return fmt.Errorf("session: disable %s: %w", domain, err)
	}
	s.setDomainEnabled(domain, false)
	return nil
}

func (s *Session) setDomainEnabled(domain string, enabled bool) {
	switch domain {
	case "Debugger":
		s.debug.SetEnabled(enabled)
		s.scripts.SetEnabled(enabled)
	case "Network":
		s.network.SetEnabled(enabled)
	case "Runtime":
		s.console.SetEnabled(enabled)
	case "Fetch":
		s.fetch.SetEnabled(enabled)
	}
}

// Reset drains the in-flight state of every projection, used after a kill
// or an explicit caller-requested reset. The connection itself is
// untouched; call Close first if it should also be torn down.
func (s *Session) Reset() {
	s.debug.Reset()
	s.scripts.Reset()
	s.network.Reset()
	s.console.Reset()
	s.fetch.Reset()
	s.logs.Reset()
	s.workers.Reset()

	s.mu.Lock()
	s.documentNodeID = 0
	s.hasDocumentNodeID = false
	s.targets = make(map[string]model.TargetInfo)
	s.activeSessionID = ""
	s.mu.Unlock()
}

// Close disconnects the transport, failing every outstanding call, and
// resets every projection. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t != nil {
		_ = t.Disconnect()
	}
	s.Reset()
	return nil
}
