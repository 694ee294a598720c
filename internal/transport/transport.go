// Package transport implements the single CDP WebSocket connection: framed
// JSON-RPC request/response correlation, per-request timeouts, bulk
// cancellation on disconnect, and event fan-out for frames that carry no id.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cdpsession/engine/pkg/wire"
)

// DefaultTimeout is the per-send deadline used when none is configured.
const DefaultTimeout = 30 * time.Second

const wsWriteBufferSize = 1 << 20

// EventHandler receives every inbound frame that carries no correlated id.
// It must not block — projections only ever perform in-memory updates.
type EventHandler func(wire.Event)

// Transport owns one WebSocket connection to a Chrome debugging endpoint.
type Transport struct {
	logger  *zap.Logger
	timeout time.Duration

	conn *websocket.Conn

	mu       sync.Mutex
	nextID   int
	pending  map[int]*pendingRequest
	closed   bool
	sendCh   chan sendJob
	done     chan struct{}
	closeErr error

	onEvent EventHandler
}

type pendingRequest struct {
	id       int
	method   string
	resultCh chan sendResult
	timer    *time.Timer
}

type sendResult struct {
	result json.RawMessage
	err    error
}

type sendJob struct {
	payload []byte
}

// Option configures a Transport at Dial time.
type Option func(*Transport)

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithTimeout overrides the default per-send deadline.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// WithEventHandler registers the callback invoked for every inbound event
// frame. Only one handler is supported; the router is expected to fan the
// event out further itself.
func WithEventHandler(h EventHandler) Option {
	return func(t *Transport) { t.onEvent = h }
}

// Dial opens the WebSocket connection and starts the read/write loops.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Transport, error) {
	t := &Transport{
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
		pending: make(map[int]*pendingRequest),
		sendCh:  make(chan sendJob, 32),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: t.timeout,
		WriteBufferSize:  wsWriteBufferSize,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", wsURL, err)
	}
	t.conn = conn

	go t.readLoop()
	go t.writeLoop()

	return t, nil
}

// Send issues a CDP command and blocks until its response, a protocol
// error, a timeout, or a disconnect resolves it — exactly one of the four.
func (t *Transport) Send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return t.send(ctx, "", method, params)
}

// SendForSession is Send with a sessionId attached to the outbound frame,
// for commands scoped to a specific attached target.
func (t *Transport) SendForSession(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	return t.send(ctx, sessionID, method, params)
}

func (t *Transport) send(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	var rawParams json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("transport: encode params for %s: %w", method, err)
		}
		rawParams = encoded
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	t.nextID++
	id := t.nextID

	req := wire.Request{ID: id, Method: method, Params: rawParams, SessionID: sessionID}
	payload, err := json.Marshal(req)
	if err != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("transport: encode request %s: %w", method, err)
	}

	pr := &pendingRequest{id: id, method: method, resultCh: make(chan sendResult, 1)}
	pr.timer = time.AfterFunc(t.timeout, func() {
		t.resolve(id, sendResult{err: &Timeout{Method: method, ID: id, Ms: int(t.timeout / time.Millisecond)}})
	})
	t.pending[id] = pr
	t.mu.Unlock()

	select {
	case t.sendCh <- sendJob{payload: payload}:
	case <-t.done:
		t.failPending(id, ErrConnectionClosed)
		return nil, ErrConnectionClosed
	}

	select {
	case res := <-pr.resultCh:
		return res.result, res.err
	case <-ctx.Done():
		// The caller's own context, not the Transport's deadline — the
		// pending slot keeps its own timer and is still drained normally.
		return nil, ctx.Err()
	}
}

// resolve delivers a result to a pending request exactly once; later calls
// for the same id (e.g. a timer firing after the response already arrived)
// are no-ops.
func (t *Transport) resolve(id int, res sendResult) {
	t.mu.Lock()
	pr, ok := t.pending[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.pending, id)
	t.mu.Unlock()

	pr.timer.Stop()
	pr.resultCh <- res
}

func (t *Transport) failPending(id int, err error) {
	t.resolve(id, sendResult{err: err})
}

func (t *Transport) writeLoop() {
	for {
		select {
		case job := <-t.sendCh:
			t.logger.Debug("cdp send", zap.ByteString("frame", job.payload))
			if err := t.conn.WriteMessage(websocket.TextMessage, job.payload); err != nil {
				t.logger.Warn("transport write failed", zap.Error(err))
				t.teardown(err)
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *Transport) readLoop() {
	for {
		_, buf, err := t.conn.ReadMessage()
		if err != nil {
			t.teardown(err)
			return
		}

		var frame wire.Frame
		if err := json.Unmarshal(buf, &frame); err != nil {
			t.logger.Warn("transport decode failed, dropping frame", zap.Error(err), zap.Error(ErrDecode))
			continue
		}

		switch {
		case frame.IsResponse():
			if frame.Error != nil {
				t.resolve(frame.ID, sendResult{err: &ProtocolError{
					Code:    frame.Error.Code,
					Message: frame.Error.Message,
					Data:    string(frame.Error.Data),
				}})
				continue
			}
			t.resolve(frame.ID, sendResult{result: frame.Result})
		case frame.IsEvent():
			if t.onEvent != nil {
				t.onEvent(wire.Event{Method: frame.Method, Params: frame.Params})
			}
		default:
			t.logger.Debug("ignoring malformed frame (no id or method)")
		}
	}
}

func (t *Transport) teardown(cause error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.closeErr = cause
	pending := t.pending
	t.pending = make(map[int]*pendingRequest)
	t.mu.Unlock()

	close(t.done)
	for id, pr := range pending {
		pr.timer.Stop()
		pr.resultCh <- sendResult{err: ErrConnectionClosed}
		_ = id
	}
	_ = t.conn.Close()
}

// Disconnect closes the socket and fails every in-flight call with
// ErrConnectionClosed.
func (t *Transport) Disconnect() error {
	t.teardown(ErrConnectionClosed)
	return nil
}

// Closed reports whether the transport has torn down.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
