package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cdpsession/engine/pkg/model"
)

func TestDebugStateZeroValueSnapshot(t *testing.T) {
	d := NewDebugState()
	snap := d.ToJSON()
	assert.Equal(t, DebugStateSnapshot{PauseOnExceptions: "none"}, snap)
}

// TestDebugStatePauseInvariant is invariant 2 from spec.md §8: after
// Debugger.paused is delivered, IsPaused() is true and CallFrames() is
// non-empty until the next Debugger.resumed.
func TestDebugStatePauseInvariant(t *testing.T) {
	d := NewDebugState()
	d.SetEnabled(true)

	frames := []model.CallFrame{{CallFrameID: "frame-1", FunctionName: "targetFunction"}}
	d.OnPaused("other", frames, nil, nil, nil)

	assert.True(t, d.IsPaused())
	assert.Len(t, d.CallFrames(), 1)

	d.OnResumed()
	assert.False(t, d.IsPaused())
	assert.Empty(t, d.CallFrames())
}

func TestDebugStateDisableResetsPauseAndBreakpoints(t *testing.T) {
	d := NewDebugState()
	d.SetEnabled(true)
	d.OnPaused("other", []model.CallFrame{{CallFrameID: "f1"}}, nil, nil, nil)
	d.AddBreakpoint(model.ManagedBreakpoint{ID: "1:4:0:http://x/p.html", URL: "http://x/p.html", LineNumber: 4})

	d.SetEnabled(false)

	assert.False(t, d.IsPaused())
	assert.Equal(t, 0, d.BreakpointCount())
}

func TestDebugStateKeyedByChromeBreakpointID(t *testing.T) {
	d := NewDebugState()
	bp1 := d.AddBreakpoint(model.ManagedBreakpoint{ID: "1:4:0:http://x/a.js", URL: "http://x/a.js", LineNumber: 1})
	d.RemoveBreakpoint(bp1.ID)
	bp2 := d.AddBreakpoint(model.ManagedBreakpoint{ID: "1:2:0:http://x/b.js", URL: "http://x/b.js", LineNumber: 2})

	assert.Equal(t, "1:4:0:http://x/a.js", bp1.ID)
	assert.NotEqual(t, bp1.ID, bp2.ID)
	_, stillThere := d.Breakpoint(bp1.ID)
	assert.False(t, stillThere)
}

func TestDebugStateNotifyOnPauseFiresOnce(t *testing.T) {
	d := NewDebugState()
	d.SetEnabled(true)

	var fired int
	var gotReason string
	d.NotifyOnPause(func(ps model.PauseState) {
		fired++
		gotReason = ps.Reason
	})

	d.OnPaused("other", []model.CallFrame{{CallFrameID: "f1"}}, nil, nil, nil)
	assert.Equal(t, 1, fired)
	assert.Equal(t, "other", gotReason)

	// A second pause must not re-fire a listener that already fired once.
	d.OnResumed()
	d.OnPaused("assert", []model.CallFrame{{CallFrameID: "f2"}}, nil, nil, nil)
	assert.Equal(t, 1, fired)
}

func TestDebugStateNotifyOnPauseCancelPreventsFiring(t *testing.T) {
	d := NewDebugState()
	d.SetEnabled(true)

	var fired bool
	cancel := d.NotifyOnPause(func(model.PauseState) { fired = true })
	cancel()

	d.OnPaused("other", []model.CallFrame{{CallFrameID: "f1"}}, nil, nil, nil)
	assert.False(t, fired)
}

func TestDebugStateBreakpointResolvedAppendsLocation(t *testing.T) {
	d := NewDebugState()
	bp := d.AddBreakpoint(model.ManagedBreakpoint{ID: "1:1:0:http://x/a.js", URL: "http://x/a.js", LineNumber: 1})

	d.OnBreakpointResolved(bp.ID, model.Location{ScriptID: "s1", LineNumber: 1})

	got, ok := d.Breakpoint(bp.ID)
	assert.True(t, ok)
	assert.Len(t, got.ResolvedLocations, 1)
	assert.Equal(t, "s1", got.ResolvedLocations[0].ScriptID)
}
