package fetch

import "errors"

// Rule and paused-request errors
var (
	ErrRuleNotFound          = errors.New("fetch: rule not found")
	ErrPausedRequestNotFound = errors.New("fetch: paused request not found")
)
