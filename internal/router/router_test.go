package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cdpsession/engine/pkg/wire"
)

func TestDispatchExactMethod(t *testing.T) {
	r := New(nil)
	var got []byte
	r.On("Debugger.paused", func(params []byte) { got = params })

	r.Dispatch(wire.Event{Method: "Debugger.paused", Params: []byte(`{"reason":"other"}`)})

	assert.Equal(t, `{"reason":"other"}`, string(got))
}

func TestDispatchDomainPrefix(t *testing.T) {
	r := New(nil)
	var calls []string
	r.OnDomain("Network", func(params []byte) { calls = append(calls, "network") })

	r.Dispatch(wire.Event{Method: "Network.requestWillBeSent"})
	r.Dispatch(wire.Event{Method: "Network.loadingFinished"})
	r.Dispatch(wire.Event{Method: "Debugger.resumed"})

	assert.Equal(t, []string{"network", "network"}, calls)
}

func TestDispatchExactAndDomainBothFire(t *testing.T) {
	r := New(nil)
	var calls []string
	r.On("Network.requestWillBeSent", func(params []byte) { calls = append(calls, "exact") })
	r.OnDomain("Network", func(params []byte) { calls = append(calls, "domain") })

	r.Dispatch(wire.Event{Method: "Network.requestWillBeSent"})

	assert.Equal(t, []string{"exact", "domain"}, calls)
}

func TestDispatchUnknownMethodIsNoop(t *testing.T) {
	r := New(nil)
	assert.NotPanics(t, func() {
		r.Dispatch(wire.Event{Method: "Unknown.thing"})
	})
}
