package encapsulator

import (
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// ConsequenceKind identifies what an External protocol asked its host to do
// (§4.8 interop variant).
type ConsequenceKind string

const (
	ConsequenceCommunication ConsequenceKind = "COMMUNICATION"
	ConsequenceMobility      ConsequenceKind = "MOBILITY"
	ConsequenceTimer         ConsequenceKind = "TIMER"
	ConsequenceCancelTimer   ConsequenceKind = "CANCEL_TIMER"
	ConsequenceTrackVariable ConsequenceKind = "TRACK_VARIABLE"
)

// TimerConsequence carries an absolute fire time, not a delay: the host sets
// the current timestamp on External before each callback, so the only
// unambiguous instant to record is absolute (§4.8 design notes, Open
// Question resolved in DESIGN.md).
type TimerConsequence struct {
	Name string
	At   float64
}

// TrackVariableConsequence records a TrackedVariables.Set issued by an
// External protocol, relayed to the host instead of applied locally.
type TrackVariableConsequence struct {
	Name  string
	Value any
}

// Consequence is one side effect an External protocol produced during a
// single callback, queued instead of applied, for a host integration to
// drain and enact against its own environment (§4.8).
type Consequence struct {
	Kind        ConsequenceKind
	Communication messages.CommunicationCommand
	Mobility      messages.MobilityCommand
	Timer         TimerConsequence
	TrackVariable TrackVariableConsequence
}

// externalProvider is the protocol.Provider implementation bound to an
// External encapsulator: every call appends a Consequence instead of
// reaching into live handlers (§4.8 "no handlers, only recorded asks").
type externalProvider struct {
	nodeID        int
	now           float64
	consequences  []Consequence
	vars          protocol.TrackedVariables
}

func newExternalProvider(nodeID int) *externalProvider {
	return &externalProvider{nodeID: nodeID, vars: protocol.NewTrackedVariables()}
}

func (p *externalProvider) SendCommunicationCommand(cmd messages.CommunicationCommand) {
	p.consequences = append(p.consequences, Consequence{Kind: ConsequenceCommunication, Communication: cmd})
}

func (p *externalProvider) SendMobilityCommand(cmd messages.MobilityCommand) {
	p.consequences = append(p.consequences, Consequence{Kind: ConsequenceMobility, Mobility: cmd})
}

func (p *externalProvider) ScheduleTimer(name string, timestamp float64) error {
	p.consequences = append(p.consequences, Consequence{Kind: ConsequenceTimer, Timer: TimerConsequence{Name: name, At: timestamp}})
	return nil
}

func (p *externalProvider) CancelTimer(name string) {
	p.consequences = append(p.consequences, Consequence{Kind: ConsequenceCancelTimer, Timer: TimerConsequence{Name: name}})
}

func (p *externalProvider) CurrentTime() float64 { return p.now }

func (p *externalProvider) GetID() int { return p.nodeID }

// recordingVars applies each Set to the External's own mapping and also
// queues it as a TRACK_VARIABLE consequence for the host.
type recordingVars struct {
	protocol.TrackedVariables
	p *externalProvider
}

func (r recordingVars) Set(name string, value any) {
	r.TrackedVariables.Set(name, value)
	r.p.consequences = append(r.p.consequences, Consequence{Kind: ConsequenceTrackVariable, TrackVariable: TrackVariableConsequence{Name: name, Value: value}})
}

func (p *externalProvider) TrackedVariables() protocol.TrackedVariables {
	return recordingVars{TrackedVariables: p.vars, p: p}
}

var _ protocol.Provider = (*externalProvider)(nil)

// External binds a protocol.Protocol to a host integration instead of a
// live simulator: the host sets CurrentTime before every callback and
// drains Consequences after it, rather than the callback taking effect on
// live handlers directly (§4.8).
type External struct {
	proto    protocol.Protocol
	provider *externalProvider
}

// NewExternal binds proto for host-driven dispatch.
func NewExternal(proto protocol.Protocol, nodeID int) *External {
	provider := newExternalProvider(nodeID)
	if setter, ok := proto.(providerSetter); ok {
		setter.SetProvider(provider)
	}
	return &External{proto: proto, provider: provider}
}

// SetCurrentTime sets the timestamp Provider.CurrentTime reports for the
// next callback; the host calls this before every Initialize/HandleTimer/
// HandlePacket/HandleTelemetry/Finish invocation.
func (e *External) SetCurrentTime(t float64) { e.provider.now = t }

// Consequences drains and returns every consequence recorded since the
// last drain, in the order the protocol issued them.
func (e *External) Consequences() []Consequence {
	out := e.provider.consequences
	e.provider.consequences = nil
	return out
}

func (e *External) Initialize(stage int)                { e.proto.Initialize(stage) }
func (e *External) HandleTimer(name string)              { e.proto.HandleTimer(name) }
func (e *External) HandlePacket(message string)           { e.proto.HandlePacket(message) }
func (e *External) HandleTelemetry(t messages.Telemetry) { e.proto.HandleTelemetry(t) }
func (e *External) Finish()                              { e.proto.Finish() }

// TrackedVariables exposes the bound protocol's tracked-variable mapping,
// e.g. for a host that wants to read it without going through Consequences.
func (e *External) TrackedVariables() protocol.TrackedVariables { return e.provider.vars }
