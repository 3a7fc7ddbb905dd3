package randommobility_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartikbazzad/gradysim/addon/randommobility"
	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/handler/mobility"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
	"github.com/kartikbazzad/gradysim/simulator"
)

type host struct {
	protocol.Base
	addon *randommobility.Addon
}

func (h *host) Initialize(stage int) {
	h.addon.InitiateRandomTrip()
}

func TestInitiateRandomTripRedrawsOnArrival(t *testing.T) {
	b := simulator.NewBuilder(simulator.DefaultOptions())
	b.AddHandler(mobility.New(mobility.Config{UpdateRate: 0.1, DefaultSpeed: 1000}))

	h := &host{}
	d := dispatch.New(h)
	cfg := randommobility.DefaultConfig()
	cfg.Rng = rand.New(rand.NewSource(42))
	h.addon = randommobility.New(d, &h.Base, cfg)

	b.AddNode(geometry.Point{}, d)

	sim, err := b.Build()
	require.NoError(t, err)

	require.True(t, h.addon.TripOngoing())
	first, ok := h.addon.CurrentTarget()
	require.True(t, ok)

	for i := 0; i < 50 && sim.CurrentTime() < 5; i++ {
		more, err := sim.Step()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	second, ok := h.addon.CurrentTarget()
	require.True(t, ok)
	assert.NotEqual(t, first, second, "a fast node with a tight arrival window should have redrawn at least once")
}

func TestFinishRandomTripStopsRedrawing(t *testing.T) {
	b := simulator.NewBuilder(simulator.DefaultOptions())
	b.AddHandler(mobility.New(mobility.Config{UpdateRate: 0.1, DefaultSpeed: 1000}))

	h := &host{}
	d := dispatch.New(h)
	cfg := randommobility.DefaultConfig()
	cfg.Rng = rand.New(rand.NewSource(1))
	h.addon = randommobility.New(d, &h.Base, cfg)

	b.AddNode(geometry.Point{}, d)

	_, err := b.Build()
	require.NoError(t, err)

	h.addon.FinishRandomTrip()
	assert.False(t, h.addon.TripOngoing())

	target, hasTarget := h.addon.CurrentTarget()
	assert.False(t, hasTarget)
	assert.Equal(t, geometry.Point{}, target)
}

func TestTravelToRandomWaypointIssuesMobilityCommand(t *testing.T) {
	h := &host{}
	d := dispatch.New(h)
	cfg := randommobility.DefaultConfig()
	cfg.Rng = rand.New(rand.NewSource(7))
	addon := randommobility.New(d, &h.Base, cfg)

	recorded := recordingProvider{}
	h.Base.SetProvider(&recorded)

	waypoint := addon.TravelToRandomWaypoint()

	require.Len(t, recorded.mobility, 1)
	assert.Equal(t, messages.NewGotoCoords(waypoint.X, waypoint.Y, waypoint.Z), recorded.mobility[0])
	assert.GreaterOrEqual(t, waypoint.X, -50.0)
	assert.LessOrEqual(t, waypoint.X, 50.0)
	assert.GreaterOrEqual(t, waypoint.Z, 0.0)
	assert.LessOrEqual(t, waypoint.Z, 50.0)
}

type recordingProvider struct {
	mobility []messages.MobilityCommand
}

func (r *recordingProvider) SendCommunicationCommand(messages.CommunicationCommand) {}
func (r *recordingProvider) SendMobilityCommand(cmd messages.MobilityCommand) {
	r.mobility = append(r.mobility, cmd)
}
func (r *recordingProvider) ScheduleTimer(name string, timestamp float64) error { return nil }
func (r *recordingProvider) CancelTimer(name string)                           {}
func (r *recordingProvider) CurrentTime() float64                              { return 0 }
func (r *recordingProvider) GetID() int                                        { return 0 }
func (r *recordingProvider) TrackedVariables() protocol.TrackedVariables {
	return protocol.NewTrackedVariables()
}
