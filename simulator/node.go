// Package simulator implements the driver described in spec.md §4.2: it
// wires handlers and nodes to an eventloop.EventLoop, drives step/run
// semantics, and owns the simulator-wide logger and optional profiling.
// Shape follows bundoc.Database/bundoc.Options/DefaultOptions: a config
// struct, a builder, and a coordinator type that owns every subsystem.
package simulator

import (
	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// encapsulatedProtocol is the set of callbacks a Node forwards to its bound
// protocol. Satisfied structurally by encapsulator.Encapsulator, and by
// the bare protocol test doubles passed to NewNode.
type encapsulatedProtocol interface {
	Initialize(stage int)
	HandleTimer(name string)
	HandlePacket(message string)
	HandleTelemetry(telemetry messages.Telemetry)
	Finish()
}

// Node is a single participant in the simulation: a unique id, a mutable
// position, and the protocol instance encapsulated behind it. Ids are
// assigned by insertion order starting at 0 (§3).
type Node struct {
	ID int
	// Position is mutated only by the mobility handler (§3 Node invariant).
	Position geometry.Point

	proto encapsulatedProtocol
}

func newNode(id int, position geometry.Point, proto encapsulatedProtocol) *Node {
	return &Node{ID: id, Position: position, proto: proto}
}

// NewNode constructs a Node directly, bypassing the Builder. Exported so
// handler packages' unit tests can drive a Node without assembling a full
// Simulator; production code should go through Builder.AddNode instead.
func NewNode(id int, position geometry.Point, proto interface {
	Initialize(stage int)
	HandleTimer(name string)
	HandlePacket(message string)
	HandleTelemetry(telemetry messages.Telemetry)
	Finish()
}) *Node {
	return newNode(id, position, proto)
}

// trackedVariableExposer is satisfied structurally by
// encapsulator.Encapsulator; Nodes built via NewNode with a bare test
// double won't satisfy it.
type trackedVariableExposer interface {
	TrackedVariables() protocol.TrackedVariables
}

// TrackedVariables returns the node's protocol's observable state mapping,
// or false if the node wasn't built with an encapsulator that exposes one
// (§4.4, consumed by simulator/assertion's CEL activation).
func (n *Node) TrackedVariables() (protocol.TrackedVariables, bool) {
	tv, ok := n.proto.(trackedVariableExposer)
	if !ok {
		return nil, false
	}
	return tv.TrackedVariables(), true
}

func (n *Node) initialize(stage int)                       { n.proto.Initialize(stage) }
func (n *Node) HandleTimer(name string)                     { n.proto.HandleTimer(name) }
func (n *Node) HandlePacket(message string)                 { n.proto.HandlePacket(message) }
func (n *Node) HandleTelemetry(t messages.Telemetry)        { n.proto.HandleTelemetry(t) }
func (n *Node) finish()                                     { n.proto.Finish() }

// Handler is the contract every simulator-wide environment handler
// implements (§4.3): a unique label, injection of the event loop, and node
// registration. AfterStep and Finalize are optional, detected by type
// assertion (AfterStepper, Finalizer below) rather than embedded as
// no-op defaults, so a handler's zero value can't silently pretend to
// support a hook it doesn't.
type Handler interface {
	Label() string
	Inject(loop *eventloop.EventLoop)
	RegisterNode(node *Node) error
}

// AfterStepper is implemented by handlers that need a hook after every
// step (§4.2): mobility re-arms nothing here since its own tick reschedules
// itself, but handlers that need periodic bookkeeping use this. Returning
// a non-nil error (e.g. the assertion handler's ErrAssertionFailed) aborts
// the run from Step/Run/RunUntilDone (§7 "Failed assertion hooks").
type AfterStepper interface {
	AfterStep(iteration int, timestamp float64) error
}

// Finalizer is implemented by handlers with teardown work at simulation
// end. A non-nil error (e.g. an "eventually true" assertion never
// satisfied) is surfaced from Run/RunUntilDone/Finalize.
type Finalizer interface {
	Finalize() error
}

// Initializer is implemented by handlers with setup work to run once, after
// Inject but before any node's Protocol.Initialize (§4.2).
type Initializer interface {
	InitializeHandler()
}
