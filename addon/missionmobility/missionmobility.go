// Package missionmobility reinstates the mission-mobility addon dropped by
// spec.md's distillation (supplemented from
// original_source/gradysim/protocol/plugin/mission_mobility.py, the fuller
// of the two original variants — it additionally issues a SET_SPEED
// command and lets the current waypoint/direction be set directly): a
// node follows a fixed ordered list of waypoints, looping according to
// LoopMode once it reaches the end.
//
// Sending any other mobility command while a mission is in progress will
// likely break it; stop the mission first if one is necessary.
package missionmobility

import (
	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// LoopMode configures what happens once the mission's last (or, when
// reversed, first) waypoint is reached.
type LoopMode int

const (
	// NoLoop stops the mission once the final waypoint is reached.
	NoLoop LoopMode = iota
	// Restart travels back to the first waypoint and starts over.
	Restart
	// Reverse travels the mission backward to the start, then forward
	// again, indefinitely.
	Reverse
)

// Config configures an Addon (original defaults: 5 m/s, NoLoop, 0.5m
// tolerance).
type Config struct {
	Speed     float64
	Loop      LoopMode
	Tolerance float64
}

func DefaultConfig() Config {
	return Config{Speed: 5, Loop: NoLoop, Tolerance: 0.5}
}

// Addon drives a node through a fixed ordered list of waypoints (§2
// "mission-mobility plugin").
type Addon struct {
	base *protocol.Base
	cfg  Config

	mission        []geometry.Point
	hasMission     bool
	currentIdx     int
	hasCurrentIdx  bool
	isReversed     bool
}

// New attaches mission-mobility to base via d.
func New(d *dispatch.Dispatcher, base *protocol.Base, cfg Config) *Addon {
	a := &Addon{base: base, cfg: cfg}

	d.RegisterHandleTelemetry(func(t messages.Telemetry) dispatch.Result {
		if !a.hasMission {
			return dispatch.Continue
		}
		if a.hasReachedTarget(t.CurrentPosition) {
			a.progressWaypoint()
			a.travelToCurrentWaypoint()
		}
		return dispatch.Continue
	})

	return a
}

func (a *Addon) hasReachedTarget(pos geometry.Point) bool {
	if !a.hasCurrentIdx {
		return false
	}
	tol2 := a.cfg.Tolerance * a.cfg.Tolerance
	return geometry.SquaredDistance(pos, a.mission[a.currentIdx]) <= tol2
}

func (a *Addon) progressWaypoint() {
	if !a.hasMission {
		return
	}
	if a.isReversed {
		a.currentIdx--
	} else {
		a.currentIdx++
	}

	if a.hasOverrunBounds() {
		switch a.cfg.Loop {
		case NoLoop:
			a.StopMission()
		case Restart:
			a.currentIdx = 0
		case Reverse:
			if a.isReversed {
				a.currentIdx = 0
				a.isReversed = false
			} else {
				a.currentIdx = len(a.mission) - 1
				a.isReversed = true
			}
		}
	}
}

func (a *Addon) hasOverrunBounds() bool {
	if !a.hasMission {
		return false
	}
	if a.isReversed {
		return a.currentIdx < 0
	}
	return a.currentIdx >= len(a.mission)
}

func (a *Addon) travelToCurrentWaypoint() {
	if !a.hasCurrentIdx {
		return
	}
	wp := a.mission[a.currentIdx]
	a.base.Provider.SendMobilityCommand(messages.NewGotoCoords(wp.X, wp.Y, wp.Z))
}

// StartMission starts traveling mission in order, stopping at the last
// waypoint unless Config.Loop requests otherwise.
func (a *Addon) StartMission(mission []geometry.Point) {
	a.mission = mission
	a.hasMission = len(mission) > 0
	a.isReversed = false
	a.currentIdx = 0
	a.hasCurrentIdx = a.hasMission
	a.travelToCurrentWaypoint()

	a.base.Provider.SendMobilityCommand(messages.NewSetSpeed(a.cfg.Speed))
}

// StopMission stops the current mission, if any; a no-op otherwise.
func (a *Addon) StopMission() {
	a.mission = nil
	a.hasMission = false
	a.isReversed = false
	a.hasCurrentIdx = false
}

// SetCurrentWaypoint jumps directly to waypoint, continuing the mission
// from there afterward. Returns ErrNoMissionInProgress or
// ErrWaypointOutOfBounds as appropriate.
func (a *Addon) SetCurrentWaypoint(waypoint int) error {
	if !a.hasMission {
		return ErrNoMissionInProgress
	}
	if waypoint < 0 || waypoint >= len(a.mission) {
		return ErrWaypointOutOfBounds
	}
	a.currentIdx = waypoint
	a.hasCurrentIdx = true
	a.travelToCurrentWaypoint()
	return nil
}

// SetReversed sets the mission's direction of travel; only meaningful
// when Config.Loop is Reverse. Returns ErrNoMissionInProgress or
// ErrReverseNotSupported as appropriate.
func (a *Addon) SetReversed(reversed bool) error {
	if !a.hasMission {
		return ErrNoMissionInProgress
	}
	if a.cfg.Loop != Reverse {
		return ErrReverseNotSupported
	}
	if a.isReversed == reversed {
		return nil
	}
	a.isReversed = reversed
	a.progressWaypoint()
	a.travelToCurrentWaypoint()
	return nil
}

// CurrentWaypoint returns the index of the waypoint currently being
// traveled to, if a mission is in progress.
func (a *Addon) CurrentWaypoint() (int, bool) {
	if !a.hasCurrentIdx {
		return 0, false
	}
	return a.currentIdx, true
}

// IsReversed reports whether the mission is currently being traveled in
// reverse (only possible under Config.Loop == Reverse).
func (a *Addon) IsReversed() bool { return a.isReversed }

// IsIdle reports whether no mission is currently in progress.
func (a *Addon) IsIdle() bool { return !a.hasMission }
