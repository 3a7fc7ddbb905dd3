package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/simulator"
)

type fakeProtocol struct {
	fired []string
}

func (f *fakeProtocol) Initialize(stage int)                {}
func (f *fakeProtocol) HandleTimer(name string)              { f.fired = append(f.fired, name) }
func (f *fakeProtocol) HandlePacket(message string)          {}
func (f *fakeProtocol) HandleTelemetry(t messages.Telemetry) {}
func (f *fakeProtocol) Finish()                              {}

func drainAll(t *testing.T, loop *eventloop.EventLoop) {
	t.Helper()
	for loop.Len() > 0 {
		ev, err := loop.Pop()
		require.NoError(t, err)
		ev.Callback()
	}
}

func TestSetTimerFiresAtScheduledTime(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	require.NoError(t, h.RegisterNode(node))

	require.NoError(t, h.SetTimer("alarm", 1.5, 0))
	drainAll(t, loop)

	assert.Equal(t, []string{"alarm"}, fp.fired)
}

func TestCancelTimerPreventsFiring(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	require.NoError(t, h.RegisterNode(node))

	require.NoError(t, h.SetTimer("alarm", 1, 0))
	h.CancelTimer("alarm", 0)
	drainAll(t, loop)

	assert.Empty(t, fp.fired)
}

func TestCancelTimerOnlyAffectsNamedTimer(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	require.NoError(t, h.RegisterNode(node))

	require.NoError(t, h.SetTimer("alarm", 1, 0))
	require.NoError(t, h.SetTimer("heartbeat", 1, 0))
	h.CancelTimer("alarm", 0)
	drainAll(t, loop)

	assert.Equal(t, []string{"heartbeat"}, fp.fired)
}

func TestRescheduleSameNameFiresBothOccurrences(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	require.NoError(t, h.RegisterNode(node))

	require.NoError(t, h.SetTimer("tick", 1, 0))
	require.NoError(t, h.SetTimer("tick", 2, 0))
	drainAll(t, loop)

	assert.Equal(t, []string{"tick", "tick"}, fp.fired)
}

func TestSetTimerFromUnregisteredNodeFails(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	err := h.SetTimer("alarm", 1, 99)
	assert.ErrorIs(t, err, ErrUnregisteredNode)
}

func TestSetTimerInPastFails(t *testing.T) {
	loop := eventloop.New()
	h := New()
	h.Inject(loop)

	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	require.NoError(t, h.RegisterNode(node))

	require.NoError(t, h.SetTimer("first", 5, 0))
	drainFirstOnly(t, loop)

	err := h.SetTimer("late", 1, 0)
	assert.ErrorIs(t, err, ErrScheduleInPast)
}

func drainFirstOnly(t *testing.T, loop *eventloop.EventLoop) {
	t.Helper()
	ev, err := loop.Pop()
	require.NoError(t, err)
	ev.Callback()
}

func TestRegisterBeforeInjectFails(t *testing.T) {
	h := New()
	fp := &fakeProtocol{}
	node := simulator.NewNode(0, geometry.Point{}, fp)
	err := h.RegisterNode(node)
	assert.ErrorIs(t, err, simulator.ErrRegisterBeforeInject)
}
