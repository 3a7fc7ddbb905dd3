package dispatch_test

import (
	"testing"

	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
	"github.com/stretchr/testify/assert"
)

type countingProtocol struct {
	protocol.Base
	timers int
}

func (c *countingProtocol) HandleTimer(name string) { c.timers++ }

func TestChainRunsFrontToBackThenFinal(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	var order []string
	d.RegisterHandleTimer(func(name string) dispatch.Result {
		order = append(order, "first")
		return dispatch.Continue
	})
	d.RegisterHandleTimer(func(name string) dispatch.Result {
		order = append(order, "second-registered-runs-first")
		return dispatch.Continue
	})

	d.HandleTimer("x")

	assert.Equal(t, []string{"second-registered-runs-first", "first"}, order)
	assert.Equal(t, 1, final.timers)
}

func TestInterruptStopsChainAndSkipsFinal(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	ran := false
	d.RegisterHandleTimer(func(name string) dispatch.Result {
		ran = true
		return dispatch.Interrupt
	})

	d.HandleTimer("x")

	assert.True(t, ran)
	assert.Equal(t, 0, final.timers)
}

func TestUnregisterByIdentityRemovesOnlyThatHandler(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	var fired []string
	idA := d.RegisterHandleTimer(func(name string) dispatch.Result {
		fired = append(fired, "a")
		return dispatch.Continue
	})
	d.RegisterHandleTimer(func(name string) dispatch.Result {
		fired = append(fired, "b")
		return dispatch.Continue
	})

	d.UnregisterHandleTimer(idA)
	d.HandleTimer("x")

	assert.Equal(t, []string{"b"}, fired)
}

func TestInitializeAndFinishAlwaysRunWholeChainIgnoringResult(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	calls := 0
	d.RegisterInitialize(func(stage int) { calls++ })
	d.RegisterInitialize(func(stage int) { calls++ })
	d.RegisterFinish(func() { calls++ })

	d.Initialize(0)
	d.Finish()

	assert.Equal(t, 3, calls)
}

func TestHandlePacketAndTelemetryChains(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	var seenMsg string
	d.RegisterHandlePacket(func(message string) dispatch.Result {
		seenMsg = message
		return dispatch.Continue
	})
	d.HandlePacket("hi")
	assert.Equal(t, "hi", seenMsg)

	var seenPos messages.Telemetry
	d.RegisterHandleTelemetry(func(t messages.Telemetry) dispatch.Result {
		seenPos = t
		return dispatch.Continue
	})
	tel := messages.Telemetry{}
	d.HandleTelemetry(tel)
	assert.Equal(t, tel, seenPos)
}

func TestSetProviderForwardsToFinal(t *testing.T) {
	final := &countingProtocol{}
	d := dispatch.New(final)

	d.SetProvider(nil)
	assert.Nil(t, final.Provider)
}
