package session

import (
	"context"
	"fmt"

	"github.com/cdpsession/engine/internal/fetch"
	"github.com/cdpsession/engine/pkg/model"
)

// EnableFetch enables the Fetch domain and passes it the CDP pattern list
// generated from the current rule set, per spec.md §4.5: "This list is what
// the façade passes to Fetch.enable; changes require Fetch.enable to be
// re-invoked." The interceptor's enabled flag is flipped before building
// the pattern list, since BuildCDPPatterns reports nothing while disabled,
// and rolled back if the CDP call itself fails.
func (s *Session) EnableFetch(ctx context.Context) error {
	s.fetch.SetEnabled(true)
	patterns := s.fetch.BuildCDPPatterns()

	if _, err := s.send(ctx, "Fetch.enable", map[string]any{"patterns": patterns}); err != nil {
		s.fetch.SetEnabled(false)
		return fmt.Errorf("session: enable Fetch: %w", err)
	}
	return nil
}

// refreshFetchPatterns re-invokes Fetch.enable with the current pattern
// list after a rule add/remove, as spec.md §4.5 requires. A no-op while
// the Fetch domain is disabled.
func (s *Session) refreshFetchPatterns(ctx context.Context) error {
	if !s.fetch.Enabled() {
		return nil
	}
	patterns := s.fetch.BuildCDPPatterns()
	if _, err := s.send(ctx, "Fetch.enable", map[string]any{"patterns": patterns}); err != nil {
		return fmt.Errorf("session: refresh Fetch patterns: %w", err)
	}
	return nil
}

// AddInterceptRule adds a rule to the interception table and re-invokes
// Fetch.enable so Chrome's pattern subscription reflects it.
func (s *Session) AddInterceptRule(ctx context.Context, rule model.InterceptRule) (model.InterceptRule, error) {
	added := s.fetch.AddRule(rule)
	if err := s.refreshFetchPatterns(ctx); err != nil {
		return model.InterceptRule{}, err
	}
	return added, nil
}

// RemoveInterceptRule removes a rule from the interception table and
// re-invokes Fetch.enable so Chrome's pattern subscription reflects it.
func (s *Session) RemoveInterceptRule(ctx context.Context, id string) error {
	if !s.fetch.RemoveRule(id) {
		return ErrRuleNotFound
	}
	return s.refreshFetchPatterns(ctx)
}

// ContinueRequest issues Fetch.continueRequest for a paused request,
// unmodified, and removes it from the paused table.
func (s *Session) ContinueRequest(ctx context.Context, requestID string) error {
	if _, ok := s.fetch.GetPaused(requestID); !ok {
		return ErrPausedRequestNotFound
	}
	if _, err := s.send(ctx, "Fetch.continueRequest", map[string]any{"requestId": requestID}); err != nil {
		return fmt.Errorf("session: continue request: %w", err)
	}
	if err := s.fetch.Continue(requestID); err != nil {
		return fmt.Errorf("session: continue request: %w", err)
	}
	return nil
}

// FulfillRequest issues Fetch.fulfillRequest with a mocked response for a
// paused request, per spec.md §8 scenario 4, and removes it from the
// paused table.
func (s *Session) FulfillRequest(ctx context.Context, requestID string, status int, headers map[string]string, body fetch.FulfillBody) error {
	if _, ok := s.fetch.GetPaused(requestID); !ok {
		return ErrPausedRequestNotFound
	}

	params := map[string]any{
		"requestId":    requestID,
		"responseCode": status,
		"body":         body.EncodedBody(),
	}
	if len(headers) > 0 {
		entries := make([]map[string]string, 0, len(headers))
		for k, v := range headers {
			entries = append(entries, map[string]string{"name": k, "value": v})
		}
		params["responseHeaders"] = entries
	}

	if _, err := s.send(ctx, "Fetch.fulfillRequest", params); err != nil {
		return fmt.Errorf("session: fulfill request: %w", err)
	}
	if _, err := s.fetch.Fulfill(requestID, status, headers, body); err != nil {
		return fmt.Errorf("session: fulfill request: %w", err)
	}
	return nil
}

// FailRequest issues Fetch.failRequest for a paused request and removes it
// from the paused table.
func (s *Session) FailRequest(ctx context.Context, requestID, reason string) error {
	if _, ok := s.fetch.GetPaused(requestID); !ok {
		return ErrPausedRequestNotFound
	}
	if _, err := s.send(ctx, "Fetch.failRequest", map[string]any{"requestId": requestID, "errorReason": reason}); err != nil {
		return fmt.Errorf("session: fail request: %w", err)
	}
	if err := s.fetch.Fail(requestID, reason); err != nil {
		return fmt.Errorf("session: fail request: %w", err)
	}
	return nil
}
