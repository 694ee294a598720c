package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fetchpkg "github.com/cdpsession/engine/internal/fetch"
	"github.com/cdpsession/engine/pkg/model"
)

// TestEnableFetchSendsBuiltPatterns covers spec.md §4.5: the pattern list
// built from the rule table is what gets passed to Fetch.enable.
func TestEnableFetchSendsBuiltPatterns(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	s.Fetch().AddRule(model.InterceptRule{Pattern: "*.png", Action: model.ActionFail, Enabled: true})

	go func() {
		req := readRequest(t, conn)
		assert.Equal(t, "Fetch.enable", req.Method)
		assert.JSONEq(t, `{"patterns":[{"urlPattern":"*.png","requestStage":"Request"}]}`, string(req.Params))
		writeResult(t, conn, req.ID, `{}`)
	}()

	require.NoError(t, s.EnableFetch(context.Background()))
}

// TestAddInterceptRuleReinvokesFetchEnable covers spec.md §4.5's "changes
// require Fetch.enable to be re-invoked".
func TestAddInterceptRuleReinvokesFetchEnable(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	go func() {
		req := readRequest(t, conn)
		assert.Equal(t, "Fetch.enable", req.Method)
		writeResult(t, conn, req.ID, `{}`)
	}()
	require.NoError(t, s.EnableFetch(context.Background()))

	go func() {
		req := readRequest(t, conn)
		assert.Equal(t, "Fetch.enable", req.Method)
		assert.JSONEq(t, `{"patterns":[{"urlPattern":"*.js","requestStage":"Request"}]}`, string(req.Params))
		writeResult(t, conn, req.ID, `{}`)
	}()
	_, err := s.AddInterceptRule(context.Background(), model.InterceptRule{Pattern: "*.js", Action: model.ActionMock, Enabled: true})
	require.NoError(t, err)
}

// TestFulfillRequestDispatchesToChrome is spec.md §8 scenario 4: a
// fulfillRequest call must actually reach Chrome, not just update the
// local paused table.
func TestFulfillRequestDispatchesToChrome(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	s.Fetch().SetEnabled(true)
	s.Fetch().OnRequestPaused("req-1", "http://x/api", "GET", "XHR", nil, "")

	go func() {
		req := readRequest(t, conn)
		assert.Equal(t, "Fetch.fulfillRequest", req.Method)
		assert.JSONEq(t, `{"requestId":"req-1","responseCode":200,"body":"eyJtb2NrZWQiOnRydWV9"}`, string(req.Params))
		writeResult(t, conn, req.ID, `{}`)
	}()

	err := s.FulfillRequest(context.Background(), "req-1", 200, nil, fetchpkg.FulfillBody{Text: `{"mocked":true}`})
	require.NoError(t, err)

	_, stillPaused := s.Fetch().GetPaused("req-1")
	assert.False(t, stillPaused)
}

func TestContinueRequestUnknownID(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, _ := newConnectedSession(t, fc)
	defer s.Close()

	assert.ErrorIs(t, s.ContinueRequest(context.Background(), "missing"), ErrPausedRequestNotFound)
}

func TestRemoveInterceptRuleUnknownID(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, _ := newConnectedSession(t, fc)
	defer s.Close()

	assert.ErrorIs(t, s.RemoveInterceptRule(context.Background(), "missing"), ErrRuleNotFound)
}

func TestFailRequestDispatchesToChrome(t *testing.T) {
	fc := newFakeChrome(t)
	defer fc.close()
	s, conn := newConnectedSession(t, fc)
	defer s.Close()

	s.Fetch().SetEnabled(true)
	s.Fetch().OnRequestPaused("req-2", "http://x/blocked", "GET", "XHR", nil, "")

	go func() {
		req := readRequest(t, conn)
		assert.Equal(t, "Fetch.failRequest", req.Method)
		assert.JSONEq(t, `{"requestId":"req-2","errorReason":"BlockedByClient"}`, string(req.Params))
		writeResult(t, conn, req.ID, `{}`)
	}()

	require.NoError(t, s.FailRequest(context.Background(), "req-2", "BlockedByClient"))
}
