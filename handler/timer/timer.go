// Package timer implements the simulator's named per-node timer handler
// (§4.6), scheduling event-loop callbacks instead of the teacher's real
// time.Timer/time.Ticker (bundoc/raft/node.go), since the simulator's event
// loop is the only clock that matters here.
package timer

import (
	"errors"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/simulator"
)

// Label is this handler's unique identifier (§4.3).
const Label = "timer"

// ErrUnregisteredNode is returned by SetTimer (and via Provider,
// ScheduleTimer) for a node that was never registered.
var ErrUnregisteredNode = errors.New("timer: node not registered")

// ErrScheduleInPast is returned when ts is strictly before the current
// simulator time.
var ErrScheduleInPast = errors.New("timer: cannot schedule before current time")

type pendingKey struct {
	nodeID int
	name   string
}

// Handler is the timer handler (§4.6).
type Handler struct {
	loop      *eventloop.EventLoop
	nodes     map[int]*simulator.Node
	pending   map[pendingKey]map[int64]struct{} // live generation ids per (node,name)
	nextGen   int64
}

// New returns an unregistered, uninjected timer Handler.
func New() *Handler {
	return &Handler{
		nodes:   make(map[int]*simulator.Node),
		pending: make(map[pendingKey]map[int64]struct{}),
	}
}

func (h *Handler) Label() string { return Label }

func (h *Handler) Inject(loop *eventloop.EventLoop) {
	h.loop = loop
}

func (h *Handler) RegisterNode(node *simulator.Node) error {
	if h.loop == nil {
		return simulator.ErrRegisterBeforeInject
	}
	h.nodes[node.ID] = node
	return nil
}

// CurrentTime satisfies encapsulator.Clock.
func (h *Handler) CurrentTime() float64 {
	if h.loop == nil {
		return 0
	}
	return h.loop.CurrentTime()
}

// SetTimer schedules node.HandleTimer(name) to fire at ts. Requires the
// node be registered and ts >= current time (§4.6).
func (h *Handler) SetTimer(name string, ts float64, nodeID int) error {
	node, ok := h.nodes[nodeID]
	if !ok {
		return ErrUnregisteredNode
	}
	if ts < h.loop.CurrentTime() {
		return ErrScheduleInPast
	}

	key := pendingKey{nodeID: nodeID, name: name}
	gen := h.nextGen
	h.nextGen++
	if h.pending[key] == nil {
		h.pending[key] = make(map[int64]struct{})
	}
	h.pending[key][gen] = struct{}{}

	return h.loop.Schedule(ts, func() {
		live, ok := h.pending[key]
		if !ok {
			return
		}
		if _, stillLive := live[gen]; !stillLive {
			return // cancelled before firing
		}
		delete(live, gen)
		if len(live) == 0 {
			delete(h.pending, key)
		}
		node.HandleTimer(name)
	}, "timer:"+name)
}

// ScheduleTimer satisfies encapsulator.TimerScheduler.
func (h *Handler) ScheduleTimer(name string, ts float64, nodeID int) error {
	return h.SetTimer(name, ts, nodeID)
}

// CancelTimer removes all pending events for (nodeID, name); a no-op if
// none are pending (§3 cancel_timer).
func (h *Handler) CancelTimer(name string, nodeID int) {
	delete(h.pending, pendingKey{nodeID: nodeID, name: name})
}
