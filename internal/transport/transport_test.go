package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdpsession/engine/pkg/wire"
)

// testServer is a minimal CDP-shaped WebSocket server: it hands each
// accepted connection to the test, which reads Request frames and decides
// what (if anything) to reply with.
type testServer struct {
	upgrader websocket.Upgrader
	connCh   chan *websocket.Conn
	srv      *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{connCh: make(chan *websocket.Conn, 1)}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ts.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ts.connCh <- conn
	}))
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ts.connCh:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted connection")
		return nil
	}
}

func (ts *testServer) close() {
	ts.srv.Close()
}

func dialTransport(t *testing.T, ts *testServer, opts ...Option) *Transport {
	t.Helper()
	tr, err := Dial(context.Background(), ts.wsURL(), opts...)
	require.NoError(t, err)
	return tr
}

func TestSendResolvesWithResult(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	tr := dialTransport(t, ts, WithTimeout(time.Second))
	conn := ts.accept(t)

	go func() {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req wire.Request
		require.NoError(t, json.Unmarshal(buf, &req))
		resp := wire.Frame{ID: req.ID, Result: json.RawMessage(`{"value":3}`)}
		out, _ := json.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, out)
	}()

	result, err := tr.Send(context.Background(), "Runtime.evaluate", map[string]any{"expression": "1+2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":3}`, string(result))
}

func TestSendResolvesWithProtocolError(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	tr := dialTransport(t, ts, WithTimeout(time.Second))
	conn := ts.accept(t)

	go func() {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req wire.Request
		require.NoError(t, json.Unmarshal(buf, &req))
		resp := wire.Frame{ID: req.ID, Error: &wire.Error{Code: -32000, Message: "boom"}}
		out, _ := json.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, out)
	}()

	_, err := tr.Send(context.Background(), "Debugger.resume", nil)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, -32000, protoErr.Code)
	assert.Equal(t, "boom", protoErr.Message)
}

func TestSendTimesOut(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	tr := dialTransport(t, ts, WithTimeout(30*time.Millisecond))
	ts.accept(t) // never replies

	_, err := tr.Send(context.Background(), "Network.getResponseBody", nil)
	require.Error(t, err)
	var to *Timeout
	require.ErrorAs(t, err, &to)
	assert.Equal(t, "Network.getResponseBody", to.Method)
}

// TestDisconnectDuringOutstandingSend is scenario 6 from spec.md §8: issuing
// a call and disconnecting before any response arrives must fail the send
// with ErrConnectionClosed, and must never resolve it a second time.
func TestDisconnectDuringOutstandingSend(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	tr := dialTransport(t, ts, WithTimeout(5*time.Second))
	ts.accept(t) // never replies

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Send(context.Background(), "Debugger.pause", nil)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Disconnect())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("send never resolved after disconnect")
	}
}

func TestEventsDispatchedWithoutID(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	events := make(chan wire.Event, 1)
	tr := dialTransport(t, ts, WithTimeout(time.Second), WithEventHandler(func(ev wire.Event) {
		events <- ev
	}))
	conn := ts.accept(t)

	frame := wire.Frame{Method: "Debugger.paused", Params: json.RawMessage(`{"reason":"other"}`)}
	out, _ := json.Marshal(frame)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, out))

	select {
	case ev := <-events:
		assert.Equal(t, "Debugger.paused", ev.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("event never dispatched")
	}
}

func TestFIFOWriteOrdering(t *testing.T) {
	ts := newTestServer(t)
	defer ts.close()

	tr := dialTransport(t, ts, WithTimeout(time.Second))
	conn := ts.accept(t)

	received := make(chan int, 3)
	go func() {
		for i := 0; i < 3; i++ {
			_, buf, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req wire.Request
			_ = json.Unmarshal(buf, &req)
			received <- req.ID
			resp := wire.Frame{ID: req.ID, Result: json.RawMessage(`{}`)}
			out, _ := json.Marshal(resp)
			_ = conn.WriteMessage(websocket.TextMessage, out)
		}
	}()

	for i := 0; i < 3; i++ {
		_, err := tr.Send(context.Background(), "Page.enable", nil)
		require.NoError(t, err)
	}

	var ids []int
	for i := 0; i < 3; i++ {
		ids = append(ids, <-received)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}
