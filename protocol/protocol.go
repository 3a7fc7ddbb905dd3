// Package protocol defines the abstract contract implemented by simulated
// node behaviors, and the Provider capability set injected into them (§3,
// §4.4). Narrow, single-purpose interfaces here follow bundoc/raft/node.go's
// StateMachine/RPCClient style: define the smallest interface the consumer
// needs, at the point of use.
package protocol

import "github.com/kartikbazzad/gradysim/messages"

// Protocol is the behavior attached to a single simulated node. An
// implementation owns no environment access directly; all side effects go
// through the Provider set by its encapsulator before Initialize runs.
type Protocol interface {
	// Initialize is called once at simulation start, stage 0 in the core
	// (the stage parameter exists for layered protocol stacks that are not
	// part of this core).
	Initialize(stage int)
	HandleTimer(name string)
	HandlePacket(message string)
	HandleTelemetry(telemetry messages.Telemetry)
	Finish()
}

// Provider is the per-protocol proxy to the simulated environment (§4.4).
// Exactly one Provider exists per encapsulated protocol.
type Provider interface {
	SendCommunicationCommand(cmd messages.CommunicationCommand)
	SendMobilityCommand(cmd messages.MobilityCommand)
	ScheduleTimer(name string, timestamp float64) error
	CancelTimer(name string)
	CurrentTime() float64
	GetID() int
	TrackedVariables() TrackedVariables
}

// TrackedVariables is the observable string-keyed mapping every protocol
// exposes (§4.4): every Set is recorded in insertion/overwrite order for
// statistics-style collectors; Get is a plain lookup.
type TrackedVariables interface {
	Set(name string, value any)
	Get(name string) (any, bool)
	// Snapshot returns a shallow copy of the current mapping, used by the
	// assertion handler's CEL activation.
	Snapshot() map[string]any
	// Writes returns the ordered log of writes since creation (§4.9 design
	// notes: "every write is observable in order").
	Writes() []Write
}
