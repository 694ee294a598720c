package session

import (
	"context"
	"encoding/json"
	"fmt"
)

type getResponseBodyResponse struct {
	Body          string `json:"body"`
	Base64Encoded bool   `json:"base64Encoded"`
}

// GetResponseBody fetches a completed request's response body via
// Network.getResponseBody. A failed call (body discarded, request still in
// flight, unknown requestId) is wrapped as ErrResponseBodyUnavailable; a
// response that does not decode is returned as a plain decode error.
func (s *Session) GetResponseBody(ctx context.Context, requestID string) (string, bool, error) {
	raw, err := s.send(ctx, "Network.getResponseBody", map[string]any{"requestId": requestID})
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrResponseBodyUnavailable, err)
	}
	var res getResponseBodyResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", false, fmt.Errorf("session: decode getResponseBody response: %w", err)
	}
	return res.Body, res.Base64Encoded, nil
}
