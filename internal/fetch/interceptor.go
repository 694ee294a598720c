// Package fetch implements the request-interception rule engine: rule
// CRUD over a stable id space, first-match-wins rule lookup, CDP pattern
// generation for Fetch.enable, and the paused-request lifecycle
// (continue/fulfill/fail). The engine never dispatches on its own — every
// rule's action is advisory, and a paused request waits for the caller to
// issue an explicit decision.
package fetch

import (
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cdpsession/engine/pkg/match"
	"github.com/cdpsession/engine/pkg/model"
)

// Interceptor owns the rule table and the paused-request table.
type Interceptor struct {
	mu      sync.Mutex
	enabled bool

	nextRuleID int
	rules      []*model.InterceptRule // insertion order

	paused map[string]model.PausedRequest
}

// New returns an empty Interceptor.
func New() *Interceptor {
	return &Interceptor{paused: make(map[string]model.PausedRequest)}
}

// SetEnabled mirrors the Fetch domain's enable/disable flag.
func (f *Interceptor) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

// Enabled reports the current Fetch domain enable/disable flag.
func (f *Interceptor) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// AddRule appends a new rule and assigns its id. Rule ids are never reused
// within a session, even across remove/add, until Reset.
func (f *Interceptor) AddRule(r model.InterceptRule) model.InterceptRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRuleID++
	r.ID = fmt.Sprintf("rule-%d", f.nextRuleID)
	cp := r
	f.rules = append(f.rules, &cp)
	return cp
}

// GetRule returns a copy of one rule by id. Per spec.md §8's round-trip
// property, a disabled interceptor reports no rules even though the table
// underneath is untouched.
func (f *Interceptor) GetRule(id string) (model.InterceptRule, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return model.InterceptRule{}, false
	}
	for _, r := range f.rules {
		if r.ID == id {
			return *r, true
		}
	}
	return model.InterceptRule{}, false
}

// ListRules returns copies of every rule, in insertion order.
func (f *Interceptor) ListRules() []model.InterceptRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return nil
	}
	out := make([]model.InterceptRule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, *r)
	}
	return out
}

// RemoveRule deletes a rule by id. The id counter is never rolled back —
// only Reset touches it, so a later AddRule never reuses a removed id.
func (f *Interceptor) RemoveRule(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rules {
		if r.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return true
		}
	}
	return false
}

// SetRuleEnabled toggles one rule's enabled flag without changing its id.
func (f *Interceptor) SetRuleEnabled(id string, enabled bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.ID == id {
			r.Enabled = enabled
			return true
		}
	}
	return false
}

// FindMatchingRule iterates rules in insertion order, skipping disabled
// ones, and returns the first whose resourceTypes filter (if any) includes
// resourceType and whose pattern matches url.
func (f *Interceptor) FindMatchingRule(url, resourceType string) (model.InterceptRule, bool) {
	f.mu.Lock()
	if !f.enabled {
		f.mu.Unlock()
		return model.InterceptRule{}, false
	}
	rules := make([]*model.InterceptRule, len(f.rules))
	copy(rules, f.rules)
	f.mu.Unlock()

	return matchRules(rules, url, resourceType)
}

// findMatchingRuleUnguarded is used internally by OnRequestPaused, which
// must resolve a matched rule regardless of the enabled flag: the event
// itself only arrives because Chrome already had Fetch.enable active.
func (f *Interceptor) findMatchingRuleUnguarded(url, resourceType string) (model.InterceptRule, bool) {
	f.mu.Lock()
	rules := make([]*model.InterceptRule, len(f.rules))
	copy(rules, f.rules)
	f.mu.Unlock()

	return matchRules(rules, url, resourceType)
}

func matchRules(rules []*model.InterceptRule, url, resourceType string) (model.InterceptRule, bool) {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if len(r.ResourceTypes) > 0 && !containsString(r.ResourceTypes, resourceType) {
			continue
		}
		m := match.Compile(r.Pattern)
		if m.Match(url) {
			return *r, true
		}
	}
	return model.InterceptRule{}, false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// CDPPattern is one entry of the deduplicated pattern list passed to
// Fetch.enable.
type CDPPattern struct {
	URLPattern   string `json:"urlPattern"`
	ResourceType string `json:"resourceType,omitempty"`
	RequestStage string `json:"requestStage"`
}

// BuildCDPPatterns produces a deduplicated list of CDP patterns from the
// enabled rule set. A rule with multiple resource types fans out to one
// CDP pattern per type; a rule with none produces a single type-less entry.
func (f *Interceptor) BuildCDPPatterns() []CDPPattern {
	f.mu.Lock()
	if !f.enabled {
		f.mu.Unlock()
		return nil
	}
	rules := make([]*model.InterceptRule, len(f.rules))
	copy(rules, f.rules)
	f.mu.Unlock()

	seen := make(map[CDPPattern]struct{})
	var out []CDPPattern
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if len(r.ResourceTypes) == 0 {
			p := CDPPattern{URLPattern: r.Pattern, RequestStage: "Request"}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
			continue
		}
		for _, rt := range r.ResourceTypes {
			p := CDPPattern{URLPattern: r.Pattern, ResourceType: rt, RequestStage: "Request"}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URLPattern != out[j].URLPattern {
			return out[i].URLPattern < out[j].URLPattern
		}
		return out[i].ResourceType < out[j].ResourceType
	})
	return out
}

// OnRequestPaused snapshots an inbound Fetch.requestPaused event, resolves
// the matching rule, and inserts it into the paused table.
func (f *Interceptor) OnRequestPaused(requestID, url, method, resourceType string, headers map[string]string, postData string) model.PausedRequest {
	matched, ok := f.findMatchingRuleUnguarded(url, resourceType)

	pr := model.PausedRequest{
		RequestID:    requestID,
		URL:          url,
		Method:       method,
		ResourceType: resourceType,
		Headers:      headers,
		PostData:     postData,
		Timestamp:    time.Now(),
	}
	if ok {
		mr := matched
		pr.MatchedRule = &mr
	}

	f.mu.Lock()
	f.paused[requestID] = pr
	f.mu.Unlock()

	return pr
}

// GetPaused returns a copy of one paused request by id.
func (f *Interceptor) GetPaused(requestID string) (model.PausedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return model.PausedRequest{}, false
	}
	pr, ok := f.paused[requestID]
	return pr, ok
}

// ListPaused returns copies of every currently paused request.
func (f *Interceptor) ListPaused() []model.PausedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return nil
	}
	out := make([]model.PausedRequest, 0, len(f.paused))
	for _, pr := range f.paused {
		out = append(out, pr)
	}
	return out
}

// Continue removes requestID from the paused table, as if Fetch.continueRequest
// had been issued for it. Returns ErrPausedRequestNotFound for an unknown id.
func (f *Interceptor) Continue(requestID string) error {
	return f.dispatch(requestID)
}

// FulfillBody is the body payload for Fulfill: either already
// base64-encoded (Encoded true) or plain text to be encoded before being
// placed on the wire.
type FulfillBody struct {
	Text    string
	Encoded bool
}

// EncodedBody returns the base64 body to send on the wire.
func (b FulfillBody) EncodedBody() string {
	if b.Encoded {
		return b.Text
	}
	return base64.StdEncoding.EncodeToString([]byte(b.Text))
}

// Fulfill removes requestID from the paused table, as if Fetch.fulfillRequest
// had been issued. Returns ErrPausedRequestNotFound for an unknown id.
func (f *Interceptor) Fulfill(requestID string, status int, headers map[string]string, body FulfillBody) (string, error) {
	if err := f.dispatch(requestID); err != nil {
		return "", err
	}
	return body.EncodedBody(), nil
}

// Fail removes requestID from the paused table, as if Fetch.failRequest had
// been issued. Returns ErrPausedRequestNotFound for an unknown id.
func (f *Interceptor) Fail(requestID, reason string) error {
	return f.dispatch(requestID)
}

func (f *Interceptor) dispatch(requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.paused[requestID]; !ok {
		return ErrPausedRequestNotFound
	}
	delete(f.paused, requestID)
	return nil
}

// Reset clears rules, the id counter, and the paused table.
func (f *Interceptor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
	f.nextRuleID = 0
	f.paused = make(map[string]model.PausedRequest)
}
