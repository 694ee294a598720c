package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cdpsession/engine/pkg/model"
)

// BreakpointSpec describes a breakpoint to set. Exactly one of URL,
// URLRegex, or ScriptID must be set, mirroring the two set-breakpoint
// operations in spec.md §3.
type BreakpointSpec struct {
	URL          string
	URLRegex     string
	ScriptID     string
	LineNumber   int
	ColumnNumber int
	Condition    string
}

func (b BreakpointSpec) validate() error {
	set := 0
	if b.URL != "" {
		set++
	}
	if b.URLRegex != "" {
		set++
	}
	if b.ScriptID != "" {
		set++
	}
	if set != 1 {
		return ErrBreakpointSpecInvalid
	}
	return nil
}

type setBreakpointByURLResponse struct {
	BreakpointID string          `json:"breakpointId"`
	Locations    []model.Location `json:"locations"`
}

// SetBreakpointByURL sets a breakpoint via Debugger.setBreakpointByUrl,
// used when spec.URL or spec.URLRegex is set.
func (s *Session) SetBreakpointByURL(ctx context.Context, spec BreakpointSpec) (model.ManagedBreakpoint, error) {
	if err := spec.validate(); err != nil {
		return model.ManagedBreakpoint{}, err
	}
	if spec.ScriptID != "" {
		return s.SetBreakpointByID(ctx, spec)
	}

	params := map[string]any{
		"lineNumber":   spec.LineNumber,
		"columnNumber": spec.ColumnNumber,
		"condition":    spec.Condition,
	}
	if spec.URL != "" {
		params["url"] = spec.URL
	} else {
		params["urlRegex"] = spec.URLRegex
	}

	raw, err := s.send(ctx, "Debugger.setBreakpointByUrl", params)
	if err != nil {
		return model.ManagedBreakpoint{}, fmt.Errorf("session: set breakpoint by url: %w", err)
	}
	var res setBreakpointByURLResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return model.ManagedBreakpoint{}, fmt.Errorf("session: decode setBreakpointByUrl response: %w", err)
	}

	bp := s.debug.AddBreakpoint(model.ManagedBreakpoint{
		ID:           res.BreakpointID,
		URL:          spec.URL,
		URLRegex:     spec.URLRegex,
		LineNumber:   spec.LineNumber,
		ColumnNumber: spec.ColumnNumber,
		Condition:    spec.Condition,
		Enabled:      true,
	})
	for _, loc := range res.Locations {
		s.debug.OnBreakpointResolved(bp.ID, loc)
	}
	bp, _ = s.debug.Breakpoint(bp.ID)
	return bp, nil
}

type setBreakpointResponse struct {
	BreakpointID string          `json:"breakpointId"`
	ActualLocation model.Location `json:"actualLocation"`
}

// SetBreakpointByID sets a breakpoint at a precise location via
// Debugger.setBreakpoint, used when spec.ScriptID is set.
func (s *Session) SetBreakpointByID(ctx context.Context, spec BreakpointSpec) (model.ManagedBreakpoint, error) {
	if spec.ScriptID == "" {
		return model.ManagedBreakpoint{}, ErrBreakpointSpecInvalid
	}

	raw, err := s.send(ctx, "Debugger.setBreakpoint", map[string]any{
		"location": model.Location{
			ScriptID:     spec.ScriptID,
			LineNumber:   spec.LineNumber,
			ColumnNumber: spec.ColumnNumber,
		},
		"condition": spec.Condition,
	})
	if err != nil {
		return model.ManagedBreakpoint{}, fmt.Errorf("session: set breakpoint by id: %w", err)
	}
	var res setBreakpointResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return model.ManagedBreakpoint{}, fmt.Errorf("session: decode setBreakpoint response: %w", err)
	}

	bp := s.debug.AddBreakpoint(model.ManagedBreakpoint{
		ID:           res.BreakpointID,
		ScriptID:     spec.ScriptID,
		LineNumber:   spec.LineNumber,
		ColumnNumber: spec.ColumnNumber,
		Condition:    spec.Condition,
		Enabled:      true,
	})
	s.debug.OnBreakpointResolved(bp.ID, res.ActualLocation)
	bp, _ = s.debug.Breakpoint(bp.ID)
	return bp, nil
}

// RemoveBreakpoint removes a previously set breakpoint by its managed id.
func (s *Session) RemoveBreakpoint(ctx context.Context, id string) error {
	bp, ok := s.debug.Breakpoint(id)
	if !ok {
		return ErrBreakpointNotFound
	}
	if _, err := s.send(ctx, "Debugger.removeBreakpoint", map[string]any{"breakpointId": bp.ID}); err != nil {
		return fmt.Errorf("session: remove breakpoint: %w", err)
	}
	s.debug.RemoveBreakpoint(id)
	return nil
}

// GetCallFrames returns the current paused call frames. Requires the
// debugger to be paused.
func (s *Session) GetCallFrames() ([]model.CallFrame, error) {
	if !s.debug.IsPaused() {
		return nil, ErrNotPaused
	}
	return s.debug.CallFrames(), nil
}

// Resume issues Debugger.resume. Requires the debugger to be paused.
func (s *Session) Resume(ctx context.Context) error {
	if !s.debug.IsPaused() {
		return ErrNotPaused
	}
	_, err := s.send(ctx, "Debugger.resume", nil)
	if err != nil {
		return fmt.Errorf("session: resume: %w", err)
	}
	return nil
}

// StepOver issues Debugger.stepOver. Requires the debugger to be paused.
func (s *Session) StepOver(ctx context.Context) error { return s.step(ctx, "Debugger.stepOver") }

// StepInto issues Debugger.stepInto. Requires the debugger to be paused.
func (s *Session) StepInto(ctx context.Context) error { return s.step(ctx, "Debugger.stepInto") }

// StepOut issues Debugger.stepOut. Requires the debugger to be paused.
func (s *Session) StepOut(ctx context.Context) error { return s.step(ctx, "Debugger.stepOut") }

func (s *Session) step(ctx context.Context, method string) error {
	if !s.debug.IsPaused() {
		return ErrNotPaused
	}
	if _, err := s.send(ctx, method, nil); err != nil {
		return fmt.Errorf("session: %s: %w", method, err)
	}
	return nil
}
