package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdpsession/engine/pkg/model"
)

// TestAddRuleRoundTrip is the round-trip property from spec.md §8:
// addRule(r) then getRule(id) yields r with the assigned id.
func TestAddRuleRoundTrip(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	added := f.AddRule(model.InterceptRule{Pattern: "*/api/mock-me", Action: model.ActionMock, Enabled: true})

	got, ok := f.GetRule(added.ID)
	require.True(t, ok)
	assert.Equal(t, added, got)
	assert.Equal(t, "rule-1", added.ID)
}

// TestRuleIDsNeverReused is invariant 4 from spec.md §8.
func TestRuleIDsNeverReused(t *testing.T) {
	f := New()
	r1 := f.AddRule(model.InterceptRule{Pattern: "*"})
	f.RemoveRule(r1.ID)
	r2 := f.AddRule(model.InterceptRule{Pattern: "*"})
	r3 := f.AddRule(model.InterceptRule{Pattern: "*"})

	assert.Equal(t, "rule-1", r1.ID)
	assert.Equal(t, "rule-2", r2.ID)
	assert.Equal(t, "rule-3", r3.ID)

	f.Reset()
	r4 := f.AddRule(model.InterceptRule{Pattern: "*"})
	assert.Equal(t, "rule-1", r4.ID)
}

func TestFindMatchingRuleFirstMatchInsertionOrder(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	f.AddRule(model.InterceptRule{Pattern: "*/api/*", Action: model.ActionPause, Enabled: true})
	f.AddRule(model.InterceptRule{Pattern: "*/api/mock-me", Action: model.ActionMock, Enabled: true})

	matched, ok := f.FindMatchingRule("https://host/api/mock-me", "xhr")
	require.True(t, ok)
	assert.Equal(t, model.ActionPause, matched.Action)
}

func TestFindMatchingRuleSkipsDisabled(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	f.AddRule(model.InterceptRule{Pattern: "*", Enabled: false})
	f.AddRule(model.InterceptRule{Pattern: "*", Action: model.ActionMock, Enabled: true})

	matched, ok := f.FindMatchingRule("https://host/x", "xhr")
	require.True(t, ok)
	assert.Equal(t, model.ActionMock, matched.Action)
}

func TestFindMatchingRuleResourceTypeFilter(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	f.AddRule(model.InterceptRule{Pattern: "*", ResourceTypes: []string{"image"}, Enabled: true})

	_, ok := f.FindMatchingRule("https://host/x", "xhr")
	assert.False(t, ok)

	_, ok = f.FindMatchingRule("https://host/x", "image")
	assert.True(t, ok)
}

func TestBuildCDPPatternsFanOutAndDedup(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	f.AddRule(model.InterceptRule{Pattern: "*/api/*", ResourceTypes: []string{"xhr", "fetch"}, Enabled: true})
	f.AddRule(model.InterceptRule{Pattern: "*/api/*", ResourceTypes: []string{"xhr"}, Enabled: true})
	f.AddRule(model.InterceptRule{Pattern: "*", Enabled: false})

	patterns := f.BuildCDPPatterns()
	assert.Len(t, patterns, 2)
	for _, p := range patterns {
		assert.Equal(t, "Request", p.RequestStage)
	}
}

// TestFetchPauseAndFulfill is scenario 4 from spec.md §8.
func TestFetchPauseAndFulfill(t *testing.T) {
	f := New()
	f.AddRule(model.InterceptRule{Pattern: "*/api/mock-me", Action: model.ActionMock, Enabled: true})
	f.SetEnabled(true)

	pr := f.OnRequestPaused("req-1", "https://host/api/mock-me", "GET", "xhr", nil, "")
	require.NotNil(t, pr.MatchedRule)
	assert.Equal(t, model.ActionMock, pr.MatchedRule.Action)

	body, err := f.Fulfill("req-1", 200, map[string]string{"Content-Type": "application/json"}, FulfillBody{Text: `{"mocked":true}`})
	require.NoError(t, err)
	assert.NotEmpty(t, body)

	assert.Empty(t, f.ListPaused())
}

func TestDispatchOnUnknownIDFails(t *testing.T) {
	f := New()
	assert.ErrorIs(t, f.Continue("missing"), ErrPausedRequestNotFound)
	assert.ErrorIs(t, f.Fail("missing", "Failed"), ErrPausedRequestNotFound)
	_, err := f.Fulfill("missing", 200, nil, FulfillBody{Text: "x"})
	assert.ErrorIs(t, err, ErrPausedRequestNotFound)
}

func TestFulfillBodyEncoding(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", FulfillBody{Text: "hello"}.EncodedBody())
	assert.Equal(t, "already-encoded", FulfillBody{Text: "already-encoded", Encoded: true}.EncodedBody())
}

func TestDisabledInterceptorHidesQueries(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	added := f.AddRule(model.InterceptRule{Pattern: "*", Enabled: true})
	f.OnRequestPaused("req-1", "https://host/x", "GET", "xhr", nil, "")

	f.SetEnabled(false)
	_, ok := f.GetRule(added.ID)
	assert.False(t, ok)
	assert.Empty(t, f.ListRules())
	assert.Empty(t, f.BuildCDPPatterns())
	_, ok = f.FindMatchingRule("https://host/x", "xhr")
	assert.False(t, ok)
	_, ok = f.GetPaused("req-1")
	assert.False(t, ok)
	assert.Empty(t, f.ListPaused())

	f.SetEnabled(true)
	assert.Len(t, f.ListRules(), 1)
	assert.Len(t, f.ListPaused(), 1)
}

func TestResetClearsRulesCounterAndPaused(t *testing.T) {
	f := New()
	f.SetEnabled(true)
	f.AddRule(model.InterceptRule{Pattern: "*", Enabled: true})
	f.OnRequestPaused("req-1", "https://host/x", "GET", "xhr", nil, "")

	f.Reset()

	assert.Empty(t, f.ListRules())
	assert.Empty(t, f.ListPaused())
	r := f.AddRule(model.InterceptRule{Pattern: "*"})
	assert.Equal(t, "rule-1", r.ID)
}
