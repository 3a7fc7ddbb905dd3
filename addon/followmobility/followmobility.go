// Package followmobility reinstates the leader/follower mobility addon
// dropped by spec.md's distillation (supplemented from
// original_source/gradysim/protocol/addons/follow_mobility.py): a leader
// periodically broadcasts its position, and followers travel to a fixed
// offset from whichever leader they're currently tracking, acking each
// broadcast so the leader can cull followers it hasn't heard from.
//
// A leader's own movement is untouched by this addon (it tracks its own
// position passively via telemetry); a follower's movement is driven
// entirely by it, so it should not be combined with another mobility
// addon on the same node.
package followmobility

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

const (
	broadcastTimer = "followmobility:leader-broadcast"
	followerTimer  = "followmobility:follower-scan"

	leaderTag   = "followmobility:leader"
	followerTag = "followmobility:follower"
)

type leaderPayload struct {
	ID       int            `json:"id"`
	Position geometry.Point `json:"position"`
}

// LeaderConfig configures a Leader (original defaults: 0.5s broadcast
// interval, 5s follower timeout).
type LeaderConfig struct {
	BroadcastInterval float64
	FollowerTimeout   float64
}

func DefaultLeaderConfig() LeaderConfig {
	return LeaderConfig{BroadcastInterval: 0.5, FollowerTimeout: 5}
}

// Leader broadcasts its own position on an interval and tracks which
// followers have acked recently (§2 "follow-mobility plugin").
type Leader struct {
	base *protocol.Base
	d    *dispatch.Dispatcher
	cfg  LeaderConfig

	position             geometry.Point
	broadcastRound       int
	lastSeenFromFollower map[int]int
}

// NewLeader attaches leader broadcasting to base via d.
func NewLeader(d *dispatch.Dispatcher, base *protocol.Base, cfg LeaderConfig) *Leader {
	l := &Leader{base: base, d: d, cfg: cfg, lastSeenFromFollower: make(map[int]int)}

	d.RegisterHandleTelemetry(func(t messages.Telemetry) dispatch.Result {
		l.position = t.CurrentPosition
		return dispatch.Continue
	})

	d.RegisterHandleTimer(func(name string) dispatch.Result {
		if name != broadcastTimer {
			return dispatch.Continue
		}
		l.broadcast()
		return dispatch.Interrupt
	})

	d.RegisterHandlePacket(func(message string) dispatch.Result {
		id, ok := parseFollowerAck(message)
		if !ok {
			return dispatch.Continue
		}
		l.lastSeenFromFollower[id] = l.broadcastRound
		return dispatch.Interrupt
	})

	return l
}

// Start arms the first broadcast tick; call once, typically from
// Initialize.
func (l *Leader) Start() {
	_ = l.base.Provider.ScheduleTimer(broadcastTimer, l.base.Provider.CurrentTime()+l.cfg.BroadcastInterval)
}

func (l *Leader) broadcast() {
	payload, err := json.Marshal(leaderPayload{ID: l.base.Provider.GetID(), Position: l.position})
	if err == nil {
		l.base.Provider.SendCommunicationCommand(messages.NewBroadcast(leaderTag + ":" + string(payload)))
	}

	l.cullDisconnectedFollowers()
	l.broadcastRound++

	_ = l.base.Provider.ScheduleTimer(broadcastTimer, l.base.Provider.CurrentTime()+l.cfg.BroadcastInterval)
}

func (l *Leader) cullDisconnectedFollowers() {
	for id, lastRound := range l.lastSeenFromFollower {
		if l.broadcastRound-lastRound >= int(l.cfg.FollowerTimeout/l.cfg.BroadcastInterval) {
			delete(l.lastSeenFromFollower, id)
		}
	}
}

// Followers returns the ids of followers considered currently connected,
// sorted ascending.
func (l *Leader) Followers() []int {
	out := make([]int, 0, len(l.lastSeenFromFollower))
	for id := range l.lastSeenFromFollower {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func parseFollowerAck(message string) (int, bool) {
	rest, ok := strings.CutPrefix(message, followerTag+":")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FollowerConfig configures a Follower (original defaults: 0.5s scan
// interval, 2s leader timeout, auto-follow enabled).
type FollowerConfig struct {
	ScanningInterval float64
	LeaderTimeout    float64
	AutoFollow       bool
}

func DefaultFollowerConfig() FollowerConfig {
	return FollowerConfig{ScanningInterval: 0.5, LeaderTimeout: 2, AutoFollow: true}
}

// Follower travels to a fixed offset from whichever leader it is currently
// tracking, auto-selecting the first available leader unless AutoFollow is
// disabled.
type Follower struct {
	base *protocol.Base
	d    *dispatch.Dispatcher
	cfg  FollowerConfig

	currentLeader    *int
	leaderPosition   *geometry.Point
	relativePosition geometry.Point
	lastLeaderSeenAt map[int]float64
}

// NewFollower attaches leader-following to base via d.
func NewFollower(d *dispatch.Dispatcher, base *protocol.Base, cfg FollowerConfig) *Follower {
	f := &Follower{base: base, d: d, cfg: cfg, lastLeaderSeenAt: make(map[int]float64)}

	d.RegisterHandlePacket(func(message string) dispatch.Result {
		f.handleLeaderBroadcast(message)
		return dispatch.Continue
	})

	d.RegisterHandleTimer(func(name string) dispatch.Result {
		if name != followerTimer {
			return dispatch.Continue
		}
		f.scan()
		return dispatch.Interrupt
	})

	return f
}

// Start arms the first leader-scan tick; call once, typically from
// Initialize.
func (f *Follower) Start() {
	_ = f.base.Provider.ScheduleTimer(followerTimer, f.base.Provider.CurrentTime()+f.cfg.ScanningInterval)
}

func (f *Follower) handleLeaderBroadcast(message string) {
	payloadJSON, ok := strings.CutPrefix(message, leaderTag+":")
	if !ok {
		return
	}
	var payload leaderPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return
	}

	f.lastLeaderSeenAt[payload.ID] = f.base.Provider.CurrentTime()

	if f.currentLeader == nil || *f.currentLeader != payload.ID {
		return
	}
	f.leaderPosition = &payload.Position

	destination := payload.Position.Add(f.relativePosition)
	f.base.Provider.SendMobilityCommand(messages.NewGotoCoords(destination.X, destination.Y, destination.Z))
	f.base.Provider.SendCommunicationCommand(
		messages.NewSend(followerTag+":"+strconv.Itoa(f.base.Provider.GetID()), payload.ID),
	)
}

func (f *Follower) scan() {
	now := f.base.Provider.CurrentTime()
	for id, seenAt := range f.lastLeaderSeenAt {
		if now-seenAt >= f.cfg.LeaderTimeout {
			delete(f.lastLeaderSeenAt, id)
		}
	}

	if f.currentLeader != nil {
		if _, stillAvailable := f.lastLeaderSeenAt[*f.currentLeader]; !stillAvailable {
			f.currentLeader = nil
			f.leaderPosition = nil
		}
	}

	if f.cfg.AutoFollow && f.currentLeader == nil {
		if leaders := f.AvailableLeaders(); len(leaders) > 0 {
			_ = f.FollowLeader(leaders[0])
		}
	}

	_ = f.base.Provider.ScheduleTimer(followerTimer, now+f.cfg.ScanningInterval)
}

// AvailableLeaders returns the ids of leaders heard from recently, sorted
// ascending.
func (f *Follower) AvailableLeaders() []int {
	out := make([]int, 0, len(f.lastLeaderSeenAt))
	for id := range f.lastLeaderSeenAt {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// CurrentLeader returns the id of the leader currently being followed, if
// any.
func (f *Follower) CurrentLeader() (int, bool) {
	if f.currentLeader == nil {
		return 0, false
	}
	return *f.currentLeader, true
}

// CurrentLeaderPosition returns the last known position of the current
// leader, if any.
func (f *Follower) CurrentLeaderPosition() (geometry.Point, bool) {
	if f.leaderPosition == nil {
		return geometry.Point{}, false
	}
	return *f.leaderPosition, true
}

// SetRelativePosition sets the offset the follower maintains from its
// leader's position.
func (f *Follower) SetRelativePosition(p geometry.Point) { f.relativePosition = p }

// RelativePosition returns the currently configured offset.
func (f *Follower) RelativePosition() geometry.Point { return f.relativePosition }

// FollowLeader starts following leaderID, which must be an available
// (recently heard-from) leader.
func (f *Follower) FollowLeader(leaderID int) error {
	for _, id := range f.AvailableLeaders() {
		if id == leaderID {
			f.currentLeader = &leaderID
			return nil
		}
	}
	return ErrLeaderUnavailable
}
