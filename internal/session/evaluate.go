package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cdpsession/engine/pkg/model"
)

// detectionWindow is the policy knob from spec.md §4.4's secondary
// contract: how long to wait for a late "paused" event after a
// side-effecting operation's own response has already arrived. Not
// correctness-critical — only how quickly a late pause becomes visible.
const detectionWindow = 200 * time.Millisecond

// EvaluateResult is the shape returned by Evaluate.
type EvaluateResult struct {
	Result           json.RawMessage   `json:"result,omitempty"`
	ExceptionDetails json.RawMessage   `json:"exceptionDetails,omitempty"`
	Paused           bool              `json:"paused"`
	PauseReason      string            `json:"pauseReason,omitempty"`
	CallFrames       []model.CallFrame `json:"callFrames,omitempty"`
}

type evaluateResponse struct {
	Result           json.RawMessage `json:"result"`
	ExceptionDetails json.RawMessage `json:"exceptionDetails"`
}

// Evaluate runs expression via Runtime.evaluate and implements the exact
// six-step breakpoint-aware contract from spec.md §4.4:
//
//  1. If already paused, fail immediately with AlreadyPaused — no CDP call.
//  2. If the debugger is not enabled, issue the call and return its result
//     unchanged.
//  3. If enabled, race the outstanding CDP call against the next
//     Debugger.paused event.
//  4. If the pause event wins, return {paused:true, ...}; the original CDP
//     call is left to complete in the background so its Transport slot is
//     freed, and its result is discarded.
//  5. If the CDP call wins, return {result, exceptionDetails?, paused:false}.
//  6. The pause listener is unregistered on both paths.
func (s *Session) Evaluate(ctx context.Context, expression string) (EvaluateResult, error) {
	if s.debug.IsPaused() {
		return EvaluateResult{}, AlreadyPaused(s.debug.PauseReason())
	}

	if !s.debug.Enabled() {
		res, err := s.evaluateCall(ctx, expression)
		if err != nil {
			return EvaluateResult{}, err
		}
		s.recordRaceOutcome("call")
		return EvaluateResult{Result: res.Result, ExceptionDetails: res.ExceptionDetails, Paused: false}, nil
	}

	return s.raceEvaluate(ctx, expression)
}

func (s *Session) evaluateCall(ctx context.Context, expression string) (evaluateResponse, error) {
	raw, err := s.send(ctx, "Runtime.evaluate", map[string]any{"expression": expression, "returnByValue": false})
	if err != nil {
		return evaluateResponse{}, err
	}
	var res evaluateResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return evaluateResponse{}, err
	}
	return res, nil
}

// raceEvaluate implements steps 3-6 for the debugger-enabled path.
func (s *Session) raceEvaluate(ctx context.Context, expression string) (EvaluateResult, error) {
	type callOutcome struct {
		res evaluateResponse
		err error
	}
	type pauseOutcome struct {
		state model.PauseState
	}

	callCh := make(chan callOutcome, 1)
	pauseCh := make(chan pauseOutcome, 1)

	cancel := s.debug.NotifyOnPause(func(ps model.PauseState) {
		// Buffered channel: never blocks even if nobody is listening by
		// the time this fires (e.g. the call already won the race).
		pauseCh <- pauseOutcome{state: ps}
	})

	go func() {
		res, err := s.evaluateCall(ctx, expression)
		callCh <- callOutcome{res: res, err: err}
	}()

	select {
	case p := <-pauseCh:
		cancel()
		s.recordRaceOutcome("pause")
		// The original call is still outstanding in the Transport. Drain
		// it in the background so its pending id slot is released; the
		// result itself is discarded per the contract.
		go func() { <-callCh }()
		return EvaluateResult{
			Paused:      true,
			PauseReason: p.state.Reason,
			CallFrames:  p.state.CallFrames,
		}, nil

	case c := <-callCh:
		cancel()
		if c.err != nil {
			s.recordRaceOutcome("call_error")
			return EvaluateResult{}, c.err
		}
		s.recordRaceOutcome("call")
		return EvaluateResult{Result: c.res.Result, ExceptionDetails: c.res.ExceptionDetails, Paused: false}, nil
	}
}

func (s *Session) recordRaceOutcome(winner string) {
	if s.metrics != nil {
		s.metrics.RecordEvaluateRaceOutcome(winner)
	}
}

// EvaluateOnCallFrame evaluates expression in the scope of a specific
// paused call frame. It requires the debugger to currently be paused.
func (s *Session) EvaluateOnCallFrame(ctx context.Context, callFrameID, expression string) (EvaluateResult, error) {
	if !s.debug.IsPaused() {
		return EvaluateResult{}, ErrNotPaused
	}
	raw, err := s.send(ctx, "Debugger.evaluateOnCallFrame", map[string]any{
		"callFrameId": callFrameID,
		"expression":  expression,
	})
	if err != nil {
		return EvaluateResult{}, err
	}
	var res evaluateResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return EvaluateResult{}, err
	}
	return EvaluateResult{Result: res.Result, ExceptionDetails: res.ExceptionDetails, Paused: true}, nil
}

// BreakpointAware wraps the result of a side-effecting operation together
// with whether a breakpoint fired within the detection window that
// followed it, per spec.md §4.4's secondary contract.
type BreakpointAware struct {
	Result      json.RawMessage   `json:"result,omitempty"`
	Paused      bool              `json:"paused"`
	PauseReason string            `json:"pauseReason,omitempty"`
	CallFrames  []model.CallFrame `json:"callFrames,omitempty"`
}

// withBreakpointDetection issues op, awaits its CDP response, then waits up
// to detectionWindow for a paused event before returning. A late pause
// arriving after the window still updates DebugState normally; it is just
// not reflected in this particular BreakpointAware result.
func (s *Session) withBreakpointDetection(ctx context.Context, op func(context.Context) (json.RawMessage, error)) (BreakpointAware, error) {
	pauseCh := make(chan model.PauseState, 1)
	cancel := s.debug.NotifyOnPause(func(ps model.PauseState) { pauseCh <- ps })
	defer cancel()

	result, err := op(ctx)
	if err != nil {
		return BreakpointAware{}, err
	}

	select {
	case ps := <-pauseCh:
		return BreakpointAware{Result: result, Paused: true, PauseReason: ps.Reason, CallFrames: ps.CallFrames}, nil
	case <-time.After(detectionWindow):
		return BreakpointAware{Result: result, Paused: false}, nil
	}
}
