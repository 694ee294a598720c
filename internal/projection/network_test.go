package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNetworkStateBoundedEviction is scenario 3 from spec.md §8: with
// maxRequests=5, emitting requestWillBeSent for 10 ids keeps only the 5
// most recent, in insertion order.
func TestNetworkStateBoundedEviction(t *testing.T) {
	n := NewNetworkState(5)
	n.SetEnabled(true)

	for i := 0; i < 10; i++ {
		n.OnRequestWillBeSent(reqID(i), "http://x/"+reqID(i), "GET", "document", float64(i))
	}

	all := n.GetAll()
	assert.Equal(t, 5, n.Count())
	var ids []string
	for _, r := range all {
		ids = append(ids, r.RequestID)
	}
	assert.Equal(t, []string{"req5", "req6", "req7", "req8", "req9"}, ids)
}

func reqID(i int) string {
	return "req" + string(rune('0'+i))
}

func TestNetworkStateLifecycle(t *testing.T) {
	n := NewNetworkState(10)
	n.SetEnabled(true)

	n.OnRequestWillBeSent("req1", "http://x/a", "GET", "xhr", 1.0)
	n.OnResponseReceived("req1", 200, "OK", "application/json")
	n.OnLoadingFinished("req1", 1.5, 1024)

	all := n.GetAll()
	assert.Len(t, all, 1)
	assert.Equal(t, 200, all[0].StatusCode)
	assert.InDelta(t, 0.5, all[0].Duration, 0.0001)
	assert.Empty(t, n.GetFailed())
	assert.Empty(t, n.GetPending())
}

func TestNetworkStateFailedAndPending(t *testing.T) {
	n := NewNetworkState(10)
	n.SetEnabled(true)

	n.OnRequestWillBeSent("req1", "http://x/a", "GET", "xhr", 1.0)
	n.OnRequestWillBeSent("req2", "http://x/b", "GET", "xhr", 1.0)
	n.OnLoadingFailed("req2", 2.0, "net::ERR_FAILED", false)

	assert.Len(t, n.GetFailed(), 1)
	assert.Len(t, n.GetPending(), 1)

	summary := n.GetSummary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Failed)
}

func TestNetworkStateGetByURLUsesUnanchoredMatch(t *testing.T) {
	n := NewNetworkState(10)
	n.SetEnabled(true)
	n.OnRequestWillBeSent("req1", "https://host/api/users", "GET", "xhr", 0)

	assert.Len(t, n.GetByURL("api"), 1)
	assert.Empty(t, n.GetByURL("other"))
}

func TestNetworkStateDisabledHidesQueries(t *testing.T) {
	n := NewNetworkState(10)
	n.SetEnabled(true)
	n.OnRequestWillBeSent("req1", "http://x/a", "GET", "xhr", 0)
	n.SetEnabled(false)

	assert.Empty(t, n.GetAll())
	assert.Equal(t, 0, n.Count())
	assert.Equal(t, Summary{}, n.GetSummary())
}
