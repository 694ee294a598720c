package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdpsession/engine/pkg/wire"
)

func TestGetResponseBodyDecodesPlainText(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	go func() {
		req := readRequest(t, conn)
		writeResult(t, conn, req.ID, `{"body":"hello","base64Encoded":false}`)
	}()

	body, encoded, err := s.GetResponseBody(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
	assert.False(t, encoded)
}

func TestGetResponseBodyWrapsProtocolError(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	go func() {
		req := readRequest(t, conn)
		frame := wire.Frame{ID: req.ID, Error: &wire.Error{Code: -32000, Message: "No resource with given identifier found"}}
		out, err := json.Marshal(frame)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, out))
	}()

	_, _, err := s.GetResponseBody(context.Background(), "req-unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseBodyUnavailable)
}
