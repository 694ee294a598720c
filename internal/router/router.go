// Package router dispatches decoded CDP events to the domain projection
// that owns them, by method name. It is deliberately transport-agnostic: it
// only ever sees (method, params) pairs handed to it by the Transport's
// event callback.
package router

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cdpsession/engine/pkg/wire"
)

// Handler processes one routed event.
type Handler func(params []byte)

// Router dispatches events to handlers registered by method name or by
// domain prefix ("Network." matches every Network.* event).
type Router struct {
	logger *zap.Logger

	mu       sync.RWMutex
	exact    map[string][]Handler
	prefixes map[string][]Handler
}

// New creates an empty Router.
func New(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		logger:   logger,
		exact:    make(map[string][]Handler),
		prefixes: make(map[string][]Handler),
	}
}

// On registers a handler for one exact method name, e.g. "Debugger.paused".
func (r *Router) On(method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[method] = append(r.exact[method], h)
}

// OnDomain registers a handler for every event in a domain, e.g. "Network"
// matches "Network.requestWillBeSent", "Network.responseReceived", etc.
func (r *Router) OnDomain(domain string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := domain + "."
	r.prefixes[prefix] = append(r.prefixes[prefix], h)
}

// Dispatch runs every handler matching one already-decoded event, exact
// handlers before domain handlers. Dispatch never blocks on I/O — handlers
// are expected to be pure in-memory updates, per the concurrency model.
func (r *Router) Dispatch(ev wire.Event) {
	r.mu.RLock()
	handlers := append([]Handler(nil), r.exact[ev.Method]...)
	for prefix, hs := range r.prefixes {
		if strings.HasPrefix(ev.Method, prefix) {
			handlers = append(handlers, hs...)
		}
	}
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.Debug("no handler for event", zap.String("method", ev.Method))
		return
	}
	for _, h := range handlers {
		h(ev.Params)
	}
}
