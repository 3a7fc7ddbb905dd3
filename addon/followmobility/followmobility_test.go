package followmobility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartikbazzad/gradysim/addon/followmobility"
	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/handler/communication"
	"github.com/kartikbazzad/gradysim/handler/mobility"
	"github.com/kartikbazzad/gradysim/handler/timer"
	"github.com/kartikbazzad/gradysim/protocol"
	"github.com/kartikbazzad/gradysim/simulator"
)

type leaderHost struct {
	protocol.Base
	leader *followmobility.Leader
}

func (h *leaderHost) Initialize(stage int) { h.leader.Start() }

type followerHost struct {
	protocol.Base
	follower *followmobility.Follower
}

func (h *followerHost) Initialize(stage int) { h.follower.Start() }

func buildLeaderFollowerSim(t *testing.T) (*simulator.Simulator, *leaderHost, *followerHost) {
	t.Helper()
	b := simulator.NewBuilder(simulator.DefaultOptions())
	b.AddHandler(timer.New())
	b.AddHandler(communication.New(communication.DefaultMedium(), nil))
	b.AddHandler(mobility.New(mobility.Config{UpdateRate: 0.1, DefaultSpeed: 1000}))

	lh := &leaderHost{}
	ld := dispatch.New(lh)
	lh.leader = followmobility.NewLeader(ld, &lh.Base, followmobility.DefaultLeaderConfig())

	fh := &followerHost{}
	fd := dispatch.New(fh)
	fh.follower = followmobility.NewFollower(fd, &fh.Base, followmobility.DefaultFollowerConfig())
	fh.follower.SetRelativePosition(geometry.Point{X: 1})

	b.AddNode(geometry.Point{X: 10, Y: 10}, ld)
	b.AddNode(geometry.Point{}, fd)

	sim, err := b.Build()
	require.NoError(t, err)
	return sim, lh, fh
}

func stepUntil(t *testing.T, sim *simulator.Simulator, seconds float64) {
	t.Helper()
	for sim.CurrentTime() < seconds {
		more, err := sim.Step()
		require.NoError(t, err)
		if !more {
			break
		}
	}
}

func TestFollowerAutoFollowsAndTracksLeader(t *testing.T) {
	sim, _, fh := buildLeaderFollowerSim(t)

	stepUntil(t, sim, 2.0)

	leaderID, ok := fh.follower.CurrentLeader()
	require.True(t, ok)
	assert.Equal(t, 0, leaderID)

	pos, ok := fh.follower.CurrentLeaderPosition()
	require.True(t, ok)
	assert.InDelta(t, 10.0, pos.X, 1e-9)
	assert.InDelta(t, 10.0, pos.Y, 1e-9)
}

func TestLeaderSeesFollowerAck(t *testing.T) {
	sim, lh, _ := buildLeaderFollowerSim(t)

	stepUntil(t, sim, 2.0)

	assert.Contains(t, lh.leader.Followers(), 1)
}

func TestFollowLeaderRejectsUnavailableLeader(t *testing.T) {
	fh := &followerHost{}
	fd := dispatch.New(fh)
	fh.follower = followmobility.NewFollower(fd, &fh.Base, followmobility.DefaultFollowerConfig())

	err := fh.follower.FollowLeader(99)
	assert.ErrorIs(t, err, followmobility.ErrLeaderUnavailable)
}
