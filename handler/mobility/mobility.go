// Package mobility implements the periodic position-update and telemetry
// handler (§4.7). No Go teacher analogue exists in bundoc; semantics are
// grounded on original_source/gradysim/simulator/handler/mobility.py, and
// the self-rescheduling tick shape follows bundoc/raft's heartbeat-ticker
// pattern adapted to the event loop instead of time.Ticker.
package mobility

import (
	"errors"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/simulator"
)

// Label is this handler's unique identifier (§4.3).
const Label = "mobility"

// ErrUnregisteredNode is returned for a mobility command from a node that
// was never registered (§4.7).
var ErrUnregisteredNode = errors.New("mobility: node not registered")

// Config configures tick rate, default speed, and the geo reference origin
// (§4.7).
type Config struct {
	UpdateRate      float64
	DefaultSpeed    float64
	ReferenceCoords geometry.GeoCoords
}

// DefaultConfig returns a Config with a 1-second tick and 1 m/s default
// speed.
func DefaultConfig() Config {
	return Config{UpdateRate: 1.0, DefaultSpeed: 1.0}
}

type nodeState struct {
	node      *simulator.Node
	target    *geometry.Point
	speed     float64
}

// Handler moves nodes toward a commanded target at a commanded speed, and
// emits Telemetry on every tick for every registered node (§4.7).
type Handler struct {
	cfg   Config
	loop  *eventloop.EventLoop
	nodes map[int]*nodeState
}

// New returns an unregistered, uninjected mobility Handler.
func New(cfg Config) *Handler {
	return &Handler{cfg: cfg, nodes: make(map[int]*nodeState)}
}

func (h *Handler) Label() string { return Label }

func (h *Handler) Inject(loop *eventloop.EventLoop) {
	h.loop = loop
	_ = h.loop.Schedule(h.loop.CurrentTime(), h.tick, "mobility:tick")
}

func (h *Handler) RegisterNode(node *simulator.Node) error {
	if h.loop == nil {
		return simulator.ErrRegisterBeforeInject
	}
	h.nodes[node.ID] = &nodeState{node: node, speed: h.cfg.DefaultSpeed}
	return nil
}

// SendMobilityCommand satisfies encapsulator.MobilityCommander.
func (h *Handler) SendMobilityCommand(cmd messages.MobilityCommand, nodeID int) error {
	st, ok := h.nodes[nodeID]
	if !ok {
		return ErrUnregisteredNode
	}
	switch cmd.Kind {
	case messages.GotoCoords:
		target := geometry.Point{X: cmd.Params[0], Y: cmd.Params[1], Z: cmd.Params[2]}
		st.target = &target
	case messages.GotoGeoCoords:
		geo := geometry.GeoCoords{Latitude: cmd.Params[0], Longitude: cmd.Params[1], Altitude: cmd.Params[2]}
		target := geometry.ToCartesian(geo, h.cfg.ReferenceCoords)
		st.target = &target
	case messages.SetSpeed:
		st.speed = cmd.Params[0]
	}
	return nil
}

// tick advances every node with a target toward it, emits telemetry for
// every registered node, and reschedules itself (§4.7). Movement and
// telemetry for a tick share this single scheduling point so telemetry is
// always consistent with the position just computed (§5).
func (h *Handler) tick() {
	now := h.loop.CurrentTime()
	for _, st := range h.nodes {
		if st.target != nil {
			advance(st, h.cfg.UpdateRate)
		}
		pos := st.node.Position
		node := st.node
		_ = h.loop.Schedule(now, func() {
			node.HandleTelemetry(messages.Telemetry{CurrentPosition: pos})
		}, "mobility:telemetry")
	}
	_ = h.loop.Schedule(now+h.cfg.UpdateRate, h.tick, "mobility:tick")
}

// advance moves st.node toward st.target by speed*updateRate, snapping to
// the target rather than overshooting it (§4.7, scenario 2).
func advance(st *nodeState, updateRate float64) {
	v := st.target.Sub(st.node.Position)
	dist := v.Length()
	step := st.speed * updateRate

	if dist == 0 {
		st.target = nil
		return
	}
	if step >= dist {
		st.node.Position = *st.target
		st.target = nil
		return
	}
	st.node.Position = st.node.Position.Add(v.Scale(step / dist))
}
