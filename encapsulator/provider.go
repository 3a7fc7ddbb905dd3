// Package encapsulator binds a protocol.Protocol instance to a Provider and
// forwards the five callbacks, per spec.md §4.8. Two variants: Simulator
// (this file + encapsulator.go), which talks to live handlers, and the
// External/Consequence-list variant in interop.go for host integration.
//
// The capability interfaces below are declared at point of use (narrow,
// single-method interfaces), the same style bundoc/raft/node.go uses for
// RPCClient/StateMachine: concrete handler types from the handler/* packages
// satisfy them structurally without this package importing those packages.
package encapsulator

import (
	"github.com/kartikbazzad/gradysim/messages"
	"github.com/kartikbazzad/gradysim/protocol"
)

// CommunicationSender is the capability a communication handler offers.
type CommunicationSender interface {
	SendCommunicationCommand(cmd messages.CommunicationCommand, senderID int) error
}

// MobilityCommander is the capability a mobility handler offers.
type MobilityCommander interface {
	SendMobilityCommand(cmd messages.MobilityCommand, nodeID int) error
}

// TimerScheduler is the capability a timer handler offers.
type TimerScheduler interface {
	ScheduleTimer(name string, timestamp float64, nodeID int) error
	CancelTimer(name string, nodeID int)
}

// Clock is satisfied by any handler that can report the simulator's current
// time; in practice the timer handler, since it owns the event loop
// reference used for scheduling (§4.4 "returns the timer/simulator clock").
type Clock interface {
	CurrentTime() float64
}

// Warner receives a message when a capability is requested but no handler
// backs it (§4.4 "no-op with warning"); Simulator passes its Logger here.
type Warner interface {
	Warning(msg string)
}

// Provider is the simulator-bound protocol.Provider implementation (§4.4).
// Any capability left nil degrades to a no-op + warning rather than a
// panic, so protocols are portable across minimally configured simulations.
type Provider struct {
	nodeID int
	comm   CommunicationSender
	mob    MobilityCommander
	timer  TimerScheduler
	clock  Clock
	warn   Warner
	vars   protocol.TrackedVariables
}

// NewProvider builds a Provider for nodeID. Any of comm, mob, timer, clock
// may be nil if the corresponding handler wasn't registered.
func NewProvider(nodeID int, comm CommunicationSender, mob MobilityCommander, timer TimerScheduler, clock Clock, warn Warner) *Provider {
	return &Provider{
		nodeID: nodeID,
		comm:   comm,
		mob:    mob,
		timer:  timer,
		clock:  clock,
		warn:   warn,
		vars:   protocol.NewTrackedVariables(),
	}
}

func (p *Provider) SendCommunicationCommand(cmd messages.CommunicationCommand) {
	if p.comm == nil {
		p.warnf("send_communication_command: no communication handler registered")
		return
	}
	if err := p.comm.SendCommunicationCommand(cmd, p.nodeID); err != nil {
		p.warnf("send_communication_command: " + err.Error())
	}
}

func (p *Provider) SendMobilityCommand(cmd messages.MobilityCommand) {
	if p.mob == nil {
		p.warnf("send_mobility_command: no mobility handler registered")
		return
	}
	if err := p.mob.SendMobilityCommand(cmd, p.nodeID); err != nil {
		p.warnf("send_mobility_command: " + err.Error())
	}
}

func (p *Provider) ScheduleTimer(name string, timestamp float64) error {
	if p.timer == nil {
		p.warnf("schedule_timer: no timer handler registered")
		return nil
	}
	return p.timer.ScheduleTimer(name, timestamp, p.nodeID)
}

func (p *Provider) CancelTimer(name string) {
	if p.timer == nil {
		return
	}
	p.timer.CancelTimer(name, p.nodeID)
}

func (p *Provider) CurrentTime() float64 {
	if p.clock == nil {
		p.warnf("current_time: no timer handler registered")
		return 0
	}
	return p.clock.CurrentTime()
}

func (p *Provider) GetID() int { return p.nodeID }

func (p *Provider) TrackedVariables() protocol.TrackedVariables { return p.vars }

func (p *Provider) warnf(msg string) {
	if p.warn != nil {
		p.warn.Warning(msg)
	}
}

var _ protocol.Provider = (*Provider)(nil)
