package communication

import (
	"math/rand"
	"testing"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProtocol struct {
	received []string
}

func (f *fakeProtocol) Initialize(stage int)                {}
func (f *fakeProtocol) HandleTimer(name string)              {}
func (f *fakeProtocol) HandlePacket(message string)          { f.received = append(f.received, message) }
func (f *fakeProtocol) HandleTelemetry(t messages.Telemetry) {}
func (f *fakeProtocol) Finish()                              {}

func setupNode(t *testing.T, h *Handler, id int, pos geometry.Point) *fakeProtocol {
	t.Helper()
	fp := &fakeProtocol{}
	node := simulator.NewNode(id, pos, fp)
	require.NoError(t, h.RegisterNode(node))
	return fp
}

func drainAll(t *testing.T, loop *eventloop.EventLoop) {
	t.Helper()
	for loop.Len() > 0 {
		ev, err := loop.Pop()
		require.NoError(t, err)
		ev.Callback()
	}
}

func TestBroadcastWithinRange(t *testing.T) {
	loop := eventloop.New()
	h := New(Medium{TransmissionRange: 10, Delay: 0, FailureRate: 0}, rand.New(rand.NewSource(1)))
	h.Inject(loop)

	setupNode(t, h, 0, geometry.Point{0, 0, 0})
	b := setupNode(t, h, 1, geometry.Point{5, 5, 5})
	c := setupNode(t, h, 2, geometry.Point{8, 8, 8})

	require.NoError(t, h.SendCommunicationCommand(messages.NewBroadcast("hi"), 0))
	drainAll(t, loop)

	assert.Equal(t, []string{"hi"}, b.received)
	assert.Empty(t, c.received)
}

func TestDelayedDelivery(t *testing.T) {
	loop := eventloop.New()
	h := New(Medium{TransmissionRange: 0, Delay: 1.0, FailureRate: 0}, nil)
	h.Inject(loop)
	// unlimited range: use a huge override instead of 0, since 0 means
	// nothing is in range per §4.5's squared-distance comparison.
	h.medium.TransmissionRange = 1e18

	setupNode(t, h, 0, geometry.Point{0, 0, 0})
	bProto := setupNode(t, h, 1, geometry.Point{100, 100, 100})

	require.NoError(t, h.SendCommunicationCommand(messages.NewSend("x", 1), 0))

	ev, err := loop.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.Timestamp)
	ev.Callback()

	assert.Equal(t, []string{"x"}, bProto.received)
}

func TestSendToSelfFails(t *testing.T) {
	loop := eventloop.New()
	h := New(DefaultMedium(), nil)
	h.Inject(loop)
	setupNode(t, h, 0, geometry.Point{})

	err := h.SendCommunicationCommand(messages.NewSend("x", 0), 0)
	assert.ErrorIs(t, err, ErrSelfSend)
}

func TestSendToUnknownDestinationFails(t *testing.T) {
	loop := eventloop.New()
	h := New(DefaultMedium(), nil)
	h.Inject(loop)
	setupNode(t, h, 0, geometry.Point{})

	err := h.SendCommunicationCommand(messages.NewSend("x", 99), 0)
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestFailureRateOneAlwaysDrops(t *testing.T) {
	loop := eventloop.New()
	h := New(Medium{TransmissionRange: 100, Delay: 0, FailureRate: 1}, rand.New(rand.NewSource(42)))
	h.Inject(loop)
	setupNode(t, h, 0, geometry.Point{})
	b := setupNode(t, h, 1, geometry.Point{1, 0, 0})

	require.NoError(t, h.SendCommunicationCommand(messages.NewSend("x", 1), 0))
	drainAll(t, loop)

	assert.Empty(t, b.received)
}

func TestTransmissionRangeOverride(t *testing.T) {
	loop := eventloop.New()
	h := New(Medium{TransmissionRange: 1, Delay: 0, FailureRate: 0}, rand.New(rand.NewSource(1)))
	h.Inject(loop)
	setupNode(t, h, 0, geometry.Point{})
	b := setupNode(t, h, 1, geometry.Point{5, 0, 0})

	h.SetTransmissionRange(0, 10)
	require.NoError(t, h.SendCommunicationCommand(messages.NewSend("reach", 1), 0))
	drainAll(t, loop)

	assert.Equal(t, []string{"reach"}, b.received)
}
