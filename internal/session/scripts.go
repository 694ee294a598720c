package session

import (
	"context"
	"encoding/json"
	"fmt"
)

type getScriptSourceResponse struct {
	ScriptSource string `json:"scriptSource"`
}

// GetScriptSource returns a script's body, fetching it via
// Debugger.getScriptSource on first request and caching the result in the
// ScriptRegistry for subsequent calls.
func (s *Session) GetScriptSource(ctx context.Context, scriptID string) (string, error) {
	if _, ok := s.scripts.Get(scriptID); !ok {
		return "", ErrScriptNotFound
	}
	if src, ok := s.scripts.Source(scriptID); ok {
		return src, nil
	}

	raw, err := s.send(ctx, "Debugger.getScriptSource", map[string]any{"scriptId": scriptID})
	if err != nil {
		return "", fmt.Errorf("session: get script source: %w", err)
	}
	var res getScriptSourceResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("session: decode getScriptSource response: %w", err)
	}
	s.scripts.SetSource(scriptID, res.ScriptSource)
	return res.ScriptSource, nil
}
