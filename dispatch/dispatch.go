// Package dispatch implements the call-chain plugin described in spec.md
// §4.9: it wraps a protocol.Protocol so each of the five callbacks becomes a
// chain of registered handlers ending with the original method. Shape is
// grounded on bundoc/rules/engine.go's ordered-rule chain (a rule set
// evaluated front-to-back against a document), generalized here to protocol
// callbacks and given INTERRUPT/CONTINUE short-circuiting instead of
// unconditional full evaluation. Handler identity uses github.com/google/uuid,
// the same token style bundoc/rules uses for rule ids.
package dispatch

import (
	"github.com/google/uuid"
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// Result is returned by a chained handler to say whether the chain should
// continue to the next entry (and eventually the wrapped protocol) or stop.
type Result int

const (
	Continue Result = iota
	Interrupt
)

type providerSetter interface {
	SetProvider(p protocol.Provider)
}

type timerEntry struct {
	id uuid.UUID
	fn func(name string) Result
}

type packetEntry struct {
	id uuid.UUID
	fn func(message string) Result
}

type telemetryEntry struct {
	id uuid.UUID
	fn func(t messages.Telemetry) Result
}

type initEntry struct {
	id uuid.UUID
	fn func(stage int)
}

type finishEntry struct {
	id uuid.UUID
	fn func()
}

// Dispatcher wraps a final protocol.Protocol with chains of handlers for
// each callback (§4.9). It satisfies protocol.Protocol itself, so it can be
// passed to an encapsulator in place of the wrapped protocol, and satisfies
// providerSetter by forwarding to the wrapped protocol if that implements
// it (protocols built on protocol.Base do).
type Dispatcher struct {
	final protocol.Protocol

	onInitialize []initEntry
	onTimer      []timerEntry
	onPacket     []packetEntry
	onTelemetry  []telemetryEntry
	onFinish     []finishEntry
}

// New wraps final in a Dispatcher with empty chains.
func New(final protocol.Protocol) *Dispatcher {
	return &Dispatcher{final: final}
}

// SetProvider forwards to the wrapped protocol if it accepts a Provider,
// letting a Dispatcher sit transparently between an encapsulator and a
// protocol.Base-embedding protocol.
func (d *Dispatcher) SetProvider(p protocol.Provider) {
	if setter, ok := d.final.(providerSetter); ok {
		setter.SetProvider(p)
	}
}

// RegisterInitialize pushes fn to the front of the initialize chain (most
// recently registered runs first, §4.9); initialize never interrupts.
func (d *Dispatcher) RegisterInitialize(fn func(stage int)) uuid.UUID {
	id := uuid.New()
	d.onInitialize = append([]initEntry{{id: id, fn: fn}}, d.onInitialize...)
	return id
}

// UnregisterInitialize removes the handler with id, a no-op if absent.
func (d *Dispatcher) UnregisterInitialize(id uuid.UUID) {
	d.onInitialize = removeInit(d.onInitialize, id)
}

// RegisterHandleTimer pushes fn to the front of the timer chain.
func (d *Dispatcher) RegisterHandleTimer(fn func(name string) Result) uuid.UUID {
	id := uuid.New()
	d.onTimer = append([]timerEntry{{id: id, fn: fn}}, d.onTimer...)
	return id
}

// UnregisterHandleTimer removes the handler with id, a no-op if absent.
func (d *Dispatcher) UnregisterHandleTimer(id uuid.UUID) {
	d.onTimer = removeTimer(d.onTimer, id)
}

// RegisterHandlePacket pushes fn to the front of the packet chain.
func (d *Dispatcher) RegisterHandlePacket(fn func(message string) Result) uuid.UUID {
	id := uuid.New()
	d.onPacket = append([]packetEntry{{id: id, fn: fn}}, d.onPacket...)
	return id
}

// UnregisterHandlePacket removes the handler with id, a no-op if absent.
func (d *Dispatcher) UnregisterHandlePacket(id uuid.UUID) {
	d.onPacket = removePacket(d.onPacket, id)
}

// RegisterHandleTelemetry pushes fn to the front of the telemetry chain.
func (d *Dispatcher) RegisterHandleTelemetry(fn func(t messages.Telemetry) Result) uuid.UUID {
	id := uuid.New()
	d.onTelemetry = append([]telemetryEntry{{id: id, fn: fn}}, d.onTelemetry...)
	return id
}

// UnregisterHandleTelemetry removes the handler with id, a no-op if absent.
func (d *Dispatcher) UnregisterHandleTelemetry(id uuid.UUID) {
	d.onTelemetry = removeTelemetry(d.onTelemetry, id)
}

// RegisterFinish pushes fn to the front of the finish chain; finish never
// interrupts.
func (d *Dispatcher) RegisterFinish(fn func()) uuid.UUID {
	id := uuid.New()
	d.onFinish = append([]finishEntry{{id: id, fn: fn}}, d.onFinish...)
	return id
}

// UnregisterFinish removes the handler with id, a no-op if absent.
func (d *Dispatcher) UnregisterFinish(id uuid.UUID) {
	d.onFinish = removeFinish(d.onFinish, id)
}

func (d *Dispatcher) Initialize(stage int) {
	for _, e := range d.onInitialize {
		e.fn(stage)
	}
	d.final.Initialize(stage)
}

func (d *Dispatcher) HandleTimer(name string) {
	for _, e := range d.onTimer {
		if e.fn(name) == Interrupt {
			return
		}
	}
	d.final.HandleTimer(name)
}

func (d *Dispatcher) HandlePacket(message string) {
	for _, e := range d.onPacket {
		if e.fn(message) == Interrupt {
			return
		}
	}
	d.final.HandlePacket(message)
}

func (d *Dispatcher) HandleTelemetry(t messages.Telemetry) {
	for _, e := range d.onTelemetry {
		if e.fn(t) == Interrupt {
			return
		}
	}
	d.final.HandleTelemetry(t)
}

func (d *Dispatcher) Finish() {
	for _, e := range d.onFinish {
		e.fn()
	}
	d.final.Finish()
}

var _ protocol.Protocol = (*Dispatcher)(nil)

func removeInit(s []initEntry, id uuid.UUID) []initEntry {
	out := s[:0]
	for _, e := range s {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

func removeTimer(s []timerEntry, id uuid.UUID) []timerEntry {
	out := s[:0]
	for _, e := range s {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

func removePacket(s []packetEntry, id uuid.UUID) []packetEntry {
	out := s[:0]
	for _, e := range s {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

func removeTelemetry(s []telemetryEntry, id uuid.UUID) []telemetryEntry {
	out := s[:0]
	for _, e := range s {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

func removeFinish(s []finishEntry, id uuid.UUID) []finishEntry {
	out := s[:0]
	for _, e := range s {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}
