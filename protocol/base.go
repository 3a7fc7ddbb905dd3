package protocol

import "github.com/kartikbazzad/gradysim/messages"

// Base is an embeddable helper holding the Provider field every Protocol
// implementation needs (§3 "Holds a provider reference"). Embedding it
// gives a protocol SetProvider, Provider, and no-op HandleTimer/
// HandlePacket/HandleTelemetry/Finish so a protocol only needs to override
// the callbacks it cares about, the same "narrow override" ergonomics as
// Go's embedding idiom elsewhere in the pack (e.g. bundoc's error wrapping).
type Base struct {
	Provider Provider
}

// SetProvider is called by the encapsulator before Initialize runs.
func (b *Base) SetProvider(p Provider) { b.Provider = p }

func (b *Base) Initialize(stage int)                            {}
func (b *Base) HandleTimer(name string)                         {}
func (b *Base) HandlePacket(message string)                     {}
func (b *Base) HandleTelemetry(telemetry messages.Telemetry)    {}
func (b *Base) Finish()                                         {}
