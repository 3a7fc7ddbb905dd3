// Package communication implements the range/delay/failure-gated message
// delivery handler (§4.5), rewritten from bundoc/raft/transport.go's real
// TCP dial into simulated, event-scheduled delivery.
package communication

import (
	"errors"
	"math"
	"math/rand"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/simulator"
)

// Label is this handler's unique identifier (§4.3).
const Label = "communication"

var (
	// ErrSelfSend is returned for a SEND command whose destination is the
	// sender itself (§4.5 step 1).
	ErrSelfSend = errors.New("communication: cannot send to self")
	// ErrUnknownDestination is returned for a SEND to an unregistered node.
	ErrUnknownDestination = errors.New("communication: unknown destination")
)

// Medium configures range, delay and failure rate for delivery (§3).
type Medium struct {
	TransmissionRange float64
	Delay             float64
	FailureRate       float64
}

// DefaultMedium returns a Medium with unlimited range, no delay, and no
// failures — "always deliver instantly within reach".
func DefaultMedium() Medium {
	return Medium{TransmissionRange: math.Inf(1), Delay: 0, FailureRate: 0}
}

// Handler delivers CommunicationCommands between registered nodes (§4.5).
type Handler struct {
	medium Medium
	loop   *eventloop.EventLoop
	nodes  map[int]*simulator.Node
	// rangeOverride holds a per-node transmission range; absent entries use
	// medium.TransmissionRange (§4.5 "initialize the override entry").
	rangeOverride map[int]float64
	rand          *rand.Rand
}

// New returns a communication Handler configured with medium. rng may be
// nil, in which case a *rand.Rand seeded with 1 is used, so failure draws
// are deterministic unless the caller passes its own source.
func New(medium Medium, rng *rand.Rand) *Handler {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Handler{
		medium:        medium,
		nodes:         make(map[int]*simulator.Node),
		rangeOverride: make(map[int]float64),
		rand:          rng,
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
	h.rangeOverride[node.ID] = h.medium.TransmissionRange
	return nil
}

// SetTransmissionRange overrides the transmission range for a single node,
// enabling asymmetric reach (§4.5).
func (h *Handler) SetTransmissionRange(nodeID int, r float64) {
	h.rangeOverride[nodeID] = r
}

func (h *Handler) rangeFor(nodeID int) float64 {
	if r, ok := h.rangeOverride[nodeID]; ok {
		return r
	}
	return h.medium.TransmissionRange
}

// SendCommunicationCommand satisfies encapsulator.CommunicationSender.
// senderID is the issuing node; delivery is scheduled per §4.5.
func (h *Handler) SendCommunicationCommand(cmd messages.CommunicationCommand, senderID int) error {
	sender, ok := h.nodes[senderID]
	if !ok {
		return simulator.ErrUnknownNode
	}

	targets, err := h.resolveTargets(cmd, senderID)
	if err != nil {
		return err
	}

	senderRange := h.rangeFor(senderID)
	for _, target := range targets {
		if !h.reachable(sender.Position, target.Position, senderRange) {
			continue
		}
		if h.rand.Float64() < h.medium.FailureRate {
			continue // dropped
		}
		targetNode := target
		message := cmd.Message
		deliverAt := h.loop.CurrentTime() + h.medium.Delay
		_ = h.loop.Schedule(deliverAt, func() {
			targetNode.HandlePacket(message)
		}, "communication:deliver")
	}
	return nil
}

func (h *Handler) resolveTargets(cmd messages.CommunicationCommand, senderID int) ([]*simulator.Node, error) {
	switch cmd.Kind {
	case messages.Send:
		if cmd.Destination == nil || *cmd.Destination == senderID {
			return nil, ErrSelfSend
		}
		target, ok := h.nodes[*cmd.Destination]
		if !ok {
			return nil, ErrUnknownDestination
		}
		return []*simulator.Node{target}, nil
	case messages.Broadcast:
		targets := make([]*simulator.Node, 0, len(h.nodes))
		for id, node := range h.nodes {
			if id == senderID {
				continue
			}
			targets = append(targets, node)
		}
		return targets, nil
	default:
		return nil, ErrUnknownDestination
	}
}

// reachable reports whether distance(sender, target) <= senderRange (§4.5,
// evaluated at command time, not delivery time). senderRange may be
// math.Inf(1) for an unbounded medium.
func (h *Handler) reachable(sender, target geometry.Point, senderRange float64) bool {
	return geometry.SquaredDistance(sender, target) <= senderRange*senderRange
}
