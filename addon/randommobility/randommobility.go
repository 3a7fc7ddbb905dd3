// Package randommobility reinstates the random-mobility addon dropped by
// spec.md's distillation (supplemented from
// original_source/gradysim/protocol/addons/random_mobility.py): a small
// helper that drives a node to uniformly random waypoints within a
// configured box, either once or as a repeating trip, built on top of the
// dispatch package's telemetry chain instead of the original's runtime
// method patching.
package randommobility

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/kartikbazzad/gradysim/dispatch"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// Range is an inclusive [Min, Max] draw range for one coordinate axis.
type Range struct {
	Min, Max float64
}

// Config configures an Addon (original default: x/y in [-50,50], z in
// [0,50], tolerance 1m).
type Config struct {
	X, Y, Z   Range
	Tolerance float64
	Rng       *rand.Rand // nil uses a *rand.Rand seeded with 1
}

// DefaultConfig mirrors RandomMobilityConfig's defaults.
func DefaultConfig() Config {
	return Config{
		X:         Range{-50, 50},
		Y:         Range{-50, 50},
		Z:         Range{0, 50},
		Tolerance: 1,
	}
}

// Addon drives repeated or one-shot random waypoint travel for a single
// node (§2 "random-mobility plugin").
type Addon struct {
	base *protocol.Base
	d    *dispatch.Dispatcher
	cfg  Config
	rng  *rand.Rand

	tripOngoing   bool
	telemetryID   uuid.UUID
	currentTarget geometry.Point
	hasTarget     bool
}

// New attaches a random-mobility addon to base (the protocol's embedded
// Provider holder) via d (the protocol's dispatch chain).
func New(d *dispatch.Dispatcher, base *protocol.Base, cfg Config) *Addon {
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Addon{base: base, d: d, cfg: cfg, rng: rng}
}

func (a *Addon) drawWaypoint() geometry.Point {
	return geometry.Point{
		X: a.cfg.X.Min + a.rng.Float64()*(a.cfg.X.Max-a.cfg.X.Min),
		Y: a.cfg.Y.Min + a.rng.Float64()*(a.cfg.Y.Max-a.cfg.Y.Min),
		Z: a.cfg.Z.Min + a.rng.Float64()*(a.cfg.Z.Max-a.cfg.Z.Min),
	}
}

// TravelToRandomWaypoint draws a single random waypoint within the
// configured ranges and issues a GOTO_COORDS command to it, returning the
// drawn destination.
func (a *Addon) TravelToRandomWaypoint() geometry.Point {
	waypoint := a.drawWaypoint()
	a.base.Provider.SendMobilityCommand(messages.NewGotoCoords(waypoint.X, waypoint.Y, waypoint.Z))
	return waypoint
}

// InitiateRandomTrip starts a repeating random trip: draws a waypoint,
// travels to it, and draws a new one every time telemetry reports the node
// within Tolerance meters, until FinishRandomTrip is called.
func (a *Addon) InitiateRandomTrip() {
	a.currentTarget = a.TravelToRandomWaypoint()
	a.hasTarget = true

	tol2 := a.cfg.Tolerance * a.cfg.Tolerance
	a.telemetryID = a.d.RegisterHandleTelemetry(func(t messages.Telemetry) dispatch.Result {
		if geometry.SquaredDistance(t.CurrentPosition, a.currentTarget) <= tol2 {
			a.currentTarget = a.TravelToRandomWaypoint()
		}
		return dispatch.Continue
	})
	a.tripOngoing = true
}

// FinishRandomTrip stops an ongoing random trip; a no-op if none is
// ongoing.
func (a *Addon) FinishRandomTrip() {
	if !a.tripOngoing {
		return
	}
	a.d.UnregisterHandleTelemetry(a.telemetryID)
	a.hasTarget = false
	a.tripOngoing = false
}

// TripOngoing reports whether a random trip is currently running.
func (a *Addon) TripOngoing() bool { return a.tripOngoing }

// CurrentTarget returns the waypoint the node is currently traveling to,
// if any.
func (a *Addon) CurrentTarget() (geometry.Point, bool) {
	if !a.hasTarget {
		return geometry.Point{}, false
	}
	return a.currentTarget, true
}
