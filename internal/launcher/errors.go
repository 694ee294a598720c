package launcher

import "errors"

var (
	// ErrChromeNotFound is returned by FindChrome when no known executable
	// name resolves on PATH.
	ErrChromeNotFound = errors.New("launcher: chrome executable not found")

	// ErrLaunchTimeout is returned when the spawned process never prints
	// its websocket endpoint within the read timeout.
	ErrLaunchTimeout = errors.New("launcher: timed out waiting for devtools endpoint")

	// ErrAttachFailed is returned when an external Chrome's /json/version
	// endpoint can't be reached or parsed.
	ErrAttachFailed = errors.New("launcher: failed to attach to external chrome")
)
