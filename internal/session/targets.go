package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cdpsession/engine/pkg/model"
)

type getTargetsResponse struct {
	TargetInfos []model.TargetInfo `json:"targetInfos"`
}

// ListTargets returns every debuggable target Target.getTargets reports.
// The HTTP endpoint used to discover this session's wsEndpoint is preserved
// across target switches, per spec.md §4.4's "other facade duties", so
// this keeps working after SwitchTarget.
func (s *Session) ListTargets(ctx context.Context) ([]model.TargetInfo, error) {
	raw, err := s.send(ctx, "Target.getTargets", nil)
	if err != nil {
		return nil, fmt.Errorf("session: list targets: %w", err)
	}
	var res getTargetsResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("session: decode getTargets response: %w", err)
	}

	s.mu.Lock()
	s.targets = make(map[string]model.TargetInfo, len(res.TargetInfos))
	for _, t := range res.TargetInfos {
		s.targets[t.TargetID] = t
	}
	s.mu.Unlock()

	return res.TargetInfos, nil
}

type attachToTargetResponse struct {
	SessionID string `json:"sessionId"`
}

// SwitchTarget attaches to targetID (flattened session mode) and routes
// every subsequent command through its sessionId. HTTPBase and the
// connection itself are untouched.
func (s *Session) SwitchTarget(ctx context.Context, targetID string) error {
	s.mu.Lock()
	_, known := s.targets[targetID]
	s.mu.Unlock()
	if !known {
		return ErrTargetNotFound
	}

	raw, err := s.send(ctx, "Target.attachToTarget", map[string]any{"targetId": targetID, "flatten": true})
	if err != nil {
		return fmt.Errorf("session: switch target: %w", err)
	}
	var res attachToTargetResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("session: decode attachToTarget response: %w", err)
	}

	s.mu.Lock()
	s.activeSessionID = res.SessionID
	s.mu.Unlock()
	return nil
}

// HTTPBase returns the HTTP endpoint this session was attached from, if
// Attach (rather than Connect) was used to establish the connection.
func (s *Session) HTTPBase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpBase
}
