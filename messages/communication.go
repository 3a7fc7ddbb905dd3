// Package messages holds the value types exchanged between protocols and
// the simulator's handlers: communication commands, mobility commands, and
// telemetry. Shape follows bundoc/wire's JSON-tagged request structs.
package messages

import "errors"

// ErrInvalidCommunicationCommand is returned when a CommunicationCommand is
// malformed for its Kind (see CommunicationCommand.Validate).
var ErrInvalidCommunicationCommand = errors.New("messages: invalid communication command")

// CommandKind distinguishes SEND (unicast) from BROADCAST.
type CommandKind int

const (
	Send CommandKind = iota
	Broadcast
)

func (k CommandKind) String() string {
	switch k {
	case Send:
		return "SEND"
	case Broadcast:
		return "BROADCAST"
	default:
		return "UNKNOWN"
	}
}

// CommunicationCommand is issued by a protocol, through its Provider, to
// send or broadcast a string payload.
type CommunicationCommand struct {
	Kind        CommandKind `json:"kind"`
	Message     string      `json:"message"`
	Destination *int        `json:"destination,omitempty"`
}

// NewSend builds a SEND command to destination.
func NewSend(message string, destination int) CommunicationCommand {
	return CommunicationCommand{Kind: Send, Message: message, Destination: &destination}
}

// NewBroadcast builds a BROADCAST command.
func NewBroadcast(message string) CommunicationCommand {
	return CommunicationCommand{Kind: Broadcast, Message: message}
}

// Validate checks the structural requirement that SEND carries a
// destination distinct from the sender (§3); the "destination unknown"
// check happens in the communication handler, which knows the node
// registry.
func (c CommunicationCommand) Validate(senderID int) error {
	if c.Kind == Send {
		if c.Destination == nil {
			return ErrInvalidCommunicationCommand
		}
		if *c.Destination == senderID {
			return ErrInvalidCommunicationCommand
		}
	}
	return nil
}
