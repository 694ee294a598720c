package projection

import (
	"sync"

	"github.com/cdpsession/engine/pkg/match"
	"github.com/cdpsession/engine/pkg/model"
)

// NetworkState aggregates the four Network.* event classes per requestId,
// bounded at maxRequests with oldest-insertion eviction.
type NetworkState struct {
	mu          sync.Mutex
	enabled     bool
	maxRequests int
	byID        map[string]*model.NetworkRequest
	order       []string // insertion order, oldest first
}

// DefaultMaxRequests is the bound used when none is configured.
const DefaultMaxRequests = 1000

// NewNetworkState returns an empty NetworkState bounded at maxRequests (the
// default is used if maxRequests <= 0).
func NewNetworkState(maxRequests int) *NetworkState {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	return &NetworkState{
		maxRequests: maxRequests,
		byID:        make(map[string]*model.NetworkRequest),
	}
}

// SetEnabled mirrors the Network domain's enable/disable flag.
func (n *NetworkState) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// OnRequestWillBeSent creates a new record, evicting the oldest if this
// insertion would exceed maxRequests.
func (n *NetworkState) OnRequestWillBeSent(requestID, url, method, resourceType string, startTime float64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.byID[requestID]; exists {
		return
	}

	n.byID[requestID] = &model.NetworkRequest{
		RequestID:    requestID,
		URL:          url,
		Method:       method,
		ResourceType: resourceType,
		StartTime:    startTime,
	}
	n.order = append(n.order, requestID)

	if len(n.order) > n.maxRequests {
		oldest := n.order[0]
		n.order = n.order[1:]
		delete(n.byID, oldest)
	}
}

// OnResponseReceived patches status/statusText/mimeType.
func (n *NetworkState) OnResponseReceived(requestID string, statusCode int, statusText, mimeType string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	req, ok := n.byID[requestID]
	if !ok {
		return
	}
	req.StatusCode = statusCode
	req.StatusText = statusText
	req.MimeType = mimeType
}

// OnLoadingFinished sets endTime/duration/encodedDataLength.
func (n *NetworkState) OnLoadingFinished(requestID string, endTime, encodedDataLength float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	req, ok := n.byID[requestID]
	if !ok {
		return
	}
	req.EndTime = endTime
	req.Duration = endTime - req.StartTime
	req.EncodedDataLength = encodedDataLength
}

// OnLoadingFailed marks a request failed.
func (n *NetworkState) OnLoadingFailed(requestID string, endTime float64, errorText string, canceled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	req, ok := n.byID[requestID]
	if !ok {
		return
	}
	req.EndTime = endTime
	req.Failed = true
	req.ErrorText = errorText
	req.Canceled = canceled
}

// GetAll returns defensive copies of every tracked request, oldest first.
func (n *NetworkState) GetAll() []model.NetworkRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(func(model.NetworkRequest) bool { return true })
}

// GetByURL returns requests whose URL matches pattern (unanchored).
func (n *NetworkState) GetByURL(pattern string) []model.NetworkRequest {
	m := match.CompileUnanchored(pattern)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(func(r model.NetworkRequest) bool { return m.Match(r.URL) })
}

// GetByType returns requests of the given resourceType.
func (n *NetworkState) GetByType(resourceType string) []model.NetworkRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(func(r model.NetworkRequest) bool { return r.ResourceType == resourceType })
}

// GetFailed returns every request with Failed == true.
func (n *NetworkState) GetFailed() []model.NetworkRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(func(r model.NetworkRequest) bool { return r.Failed })
}

// GetPending returns every request with no endTime and not failed.
func (n *NetworkState) GetPending() []model.NetworkRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked(func(r model.NetworkRequest) bool { return r.EndTime == 0 && !r.Failed })
}

// Summary is the counts returned by GetSummary.
type Summary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// GetSummary returns aggregate counts across every tracked request.
func (n *NetworkState) GetSummary() Summary {
	n.mu.Lock()
	defer n.mu.Unlock()
	var s Summary
	if !n.enabled {
		return s
	}
	for _, id := range n.order {
		req := n.byID[id]
		s.Total++
		switch req.State() {
		case model.RequestPending:
			s.Pending++
		case model.RequestCompleted:
			s.Completed++
		case model.RequestFailed:
			s.Failed++
		}
	}
	return s
}

// Count returns the number of currently tracked requests.
func (n *NetworkState) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.enabled {
		return 0
	}
	return len(n.order)
}

// snapshotLocked applies keep over every stored request. Per spec.md §8's
// round-trip property, a disabled projection reports empty results even
// though it keeps recording events underneath — re-enabling makes the
// accumulated history visible again.
func (n *NetworkState) snapshotLocked(keep func(model.NetworkRequest) bool) []model.NetworkRequest {
	if !n.enabled {
		return nil
	}
	out := make([]model.NetworkRequest, 0, len(n.order))
	for _, id := range n.order {
		req := *n.byID[id]
		if keep(req) {
			out = append(out, req)
		}
	}
	return out
}

// Reset clears every tracked request, used by Session.Reset().
func (n *NetworkState) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byID = make(map[string]*model.NetworkRequest)
	n.order = nil
}
