// Package projection holds the bounded, in-memory views the session facade
// builds up from the event stream: debugger pause state and breakpoints,
// the script registry, network requests, console messages and exceptions,
// the log buffer and the worker maps. Every projection accepts events
// regardless of whether its CDP domain is currently "enabled" — enable/
// disable only toggles the CDP subscription upstream, never the
// projection's willingness to record what arrives.
package projection

import (
	"sync"

	"github.com/cdpsession/engine/pkg/model"
)

// DebugState tracks the single pause/resume state machine and the set of
// breakpoints the facade is managing. It must be locked before any other
// projection, per the engine's lock-ordering rule, since the evaluate race
// reads it first.
type DebugState struct {
	mu          sync.Mutex
	enabled     bool
	pause       model.PauseState
	breakpoints map[string]*model.ManagedBreakpoint
	pauseOnExc  string
	asyncDepth  int

	nextListenerID int
	listeners      []pauseListener
}

type pauseListener struct {
	id int
	fn func(model.PauseState)
}

// NewDebugState returns an empty, Running DebugState.
func NewDebugState() *DebugState {
	return &DebugState{
		breakpoints: make(map[string]*model.ManagedBreakpoint),
		pauseOnExc:  "none",
	}
}

// SetEnabled mirrors the Debugger domain's enable/disable flag. Disabling
// resets pause state to Running and clears all managed breakpoints.
func (d *DebugState) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
	if !enabled {
		d.pause = model.PauseState{}
		d.breakpoints = make(map[string]*model.ManagedBreakpoint)
	}
}

// Enabled reports whether the Debugger domain is currently enabled.
func (d *DebugState) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// OnPaused handles a Debugger.paused event: overwrite the current state and
// fire every registered pause listener exactly once. Listeners are called
// outside the lock, since the evaluate race's handler reads DebugState back
// (e.g. CallFrames) and must not deadlock against this same mutex.
func (d *DebugState) OnPaused(reason string, frames []model.CallFrame, hitBreakpoints []string, data, asyncStack []byte) {
	d.mu.Lock()
	d.pause = model.PauseState{
		Paused:         true,
		Reason:         reason,
		CallFrames:     append([]model.CallFrame(nil), frames...),
		HitBreakpoints: append([]string(nil), hitBreakpoints...),
		Data:           data,
		AsyncStack:     asyncStack,
	}
	snapshot := d.pause
	listeners := d.listeners
	d.listeners = nil
	d.mu.Unlock()

	for _, l := range listeners {
		l.fn(snapshot)
	}
}

// NotifyOnPause registers a one-shot listener for the next Debugger.paused
// event. It fires at most once; call the returned cancel func to deregister
// it early (e.g. when a competing future in the evaluate race wins first),
// which is a no-op if the listener has already fired.
func (d *DebugState) NotifyOnPause(fn func(model.PauseState)) (cancel func()) {
	d.mu.Lock()
	d.nextListenerID++
	id := d.nextListenerID
	d.listeners = append(d.listeners, pauseListener{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// OnResumed handles a Debugger.resumed event: reset to Running.
func (d *DebugState) OnResumed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pause = model.PauseState{}
}

// IsPaused reports the current pause state.
func (d *DebugState) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pause.Paused
}

// PauseReason returns the reason given for the current pause, if any.
func (d *DebugState) PauseReason() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pause.Reason
}

// CallFrames returns a defensive copy of the current call frames.
func (d *DebugState) CallFrames() []model.CallFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pause.CallFrames) == 0 {
		return nil
	}
	return append([]model.CallFrame(nil), d.pause.CallFrames...)
}

// AddBreakpoint registers a managed breakpoint keyed by bp.ID, which must
// already be set to the breakpointId Chrome assigned in its
// Debugger.setBreakpoint[ByUrl] response — this is the same id that later
// arrives on Debugger.breakpointResolved events and that must be sent back
// on Debugger.removeBreakpoint, so the projection never mints its own.
func (d *DebugState) AddBreakpoint(bp model.ManagedBreakpoint) model.ManagedBreakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := bp
	d.breakpoints[bp.ID] = &cp
	return cp
}

// RemoveBreakpoint deletes a managed breakpoint by id.
func (d *DebugState) RemoveBreakpoint(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.breakpoints[id]; !ok {
		return false
	}
	delete(d.breakpoints, id)
	return true
}

// Breakpoint returns a copy of one managed breakpoint by id.
func (d *DebugState) Breakpoint(id string) (model.ManagedBreakpoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bp, ok := d.breakpoints[id]
	if !ok {
		return model.ManagedBreakpoint{}, false
	}
	return *bp, true
}

// OnBreakpointResolved appends a resolved location to the named breakpoint.
func (d *DebugState) OnBreakpointResolved(id string, loc model.Location) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bp, ok := d.breakpoints[id]
	if !ok {
		return
	}
	bp.ResolvedLocations = append(bp.ResolvedLocations, loc)
}

// BreakpointCount returns the number of currently managed breakpoints.
func (d *DebugState) BreakpointCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.breakpoints)
}

// SetAsyncStackTraceDepth records the depth passed to
// Debugger.setAsyncCallStackDepth.
func (d *DebugState) SetAsyncStackTraceDepth(depth int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asyncDepth = depth
}

// SetPauseOnExceptions records the state passed to
// Debugger.setPauseOnExceptions.
func (d *DebugState) SetPauseOnExceptions(state string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pauseOnExc = state
}

// DebugStateSnapshot is the toJSON shape from spec.md §8's round-trip
// property.
type DebugStateSnapshot struct {
	Enabled              bool   `json:"enabled"`
	IsPaused             bool   `json:"isPaused"`
	PauseReason          string `json:"pauseReason,omitempty"`
	CallFrameCount       int    `json:"callFrameCount"`
	BreakpointCount      int    `json:"breakpointCount"`
	PauseOnExceptions    string `json:"pauseOnExceptions"`
	AsyncStackTraceDepth int    `json:"asyncStackTraceDepth"`
}

// ToJSON returns the externally-visible snapshot of the debug state.
func (d *DebugState) ToJSON() DebugStateSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DebugStateSnapshot{
		Enabled:              d.enabled,
		IsPaused:             d.pause.Paused,
		PauseReason:          d.pause.Reason,
		CallFrameCount:       len(d.pause.CallFrames),
		BreakpointCount:      len(d.breakpoints),
		PauseOnExceptions:    d.pauseOnExc,
		AsyncStackTraceDepth: d.asyncDepth,
	}
}

// Reset clears pause state and every managed breakpoint, used by
// Session.Reset().
func (d *DebugState) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pause = model.PauseState{}
	d.breakpoints = make(map[string]*model.ManagedBreakpoint)
	d.pauseOnExc = "none"
	d.asyncDepth = 0
}
