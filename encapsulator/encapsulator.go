package encapsulator

import (
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// providerSetter is satisfied by protocols that expose a settable Provider
// field through this method, mirroring how the original Python protocol
// base class assigns `self.provider` before `initialize` runs.
type providerSetter interface {
	SetProvider(p protocol.Provider)
}

// Encapsulator binds a protocol.Protocol to a Provider backed by live
// simulator handlers (§4.8, simulator-bound variant).
type Encapsulator struct {
	proto    protocol.Protocol
	provider *Provider
}

// New binds proto to provider, injecting the provider into proto first if
// proto implements providerSetter (most protocols embed protocol.Base,
// which does).
func New(proto protocol.Protocol, provider *Provider) *Encapsulator {
	if setter, ok := proto.(providerSetter); ok {
		setter.SetProvider(provider)
	}
	return &Encapsulator{proto: proto, provider: provider}
}

func (e *Encapsulator) Initialize(stage int)                { e.proto.Initialize(stage) }
func (e *Encapsulator) HandleTimer(name string)              { e.proto.HandleTimer(name) }
func (e *Encapsulator) HandlePacket(message string)           { e.proto.HandlePacket(message) }
func (e *Encapsulator) HandleTelemetry(t messages.Telemetry) { e.proto.HandleTelemetry(t) }
func (e *Encapsulator) Finish()                              { e.proto.Finish() }

// Provider returns the bound Provider, e.g. for tests asserting on tracked
// variables without going through the protocol.
func (e *Encapsulator) Provider() *Provider { return e.provider }

// TrackedVariables exposes the bound Provider's observable state mapping
// directly, so simulator.Node can read it via a plain interface-method type
// assertion without depending on the concrete *Provider type (§4.4,
// consumed by simulator/assertion's CEL activation).
func (e *Encapsulator) TrackedVariables() protocol.TrackedVariables {
	return e.provider.TrackedVariables()
}
