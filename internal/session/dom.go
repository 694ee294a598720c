package session

import (
	"context"
	"encoding/json"
	"fmt"
)

type getDocumentResponse struct {
	Root struct {
		NodeID int `json:"nodeId"`
	} `json:"root"`
}

// GetDocumentNodeID returns the root document node id, caching it until a
// DOM.documentUpdated event invalidates it (a navigation or full reload).
func (s *Session) GetDocumentNodeID(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.hasDocumentNodeID {
		id := s.documentNodeID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	raw, err := s.send(ctx, "DOM.getDocument", nil)
	if err != nil {
		return 0, fmt.Errorf("session: get document: %w", err)
	}
	var res getDocumentResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return 0, fmt.Errorf("session: decode getDocument response: %w", err)
	}

	s.mu.Lock()
	s.documentNodeID = res.Root.NodeID
	s.hasDocumentNodeID = true
	s.mu.Unlock()

	return res.Root.NodeID, nil
}
