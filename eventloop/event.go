// Package eventloop implements the simulator's time-ordered event queue.
package eventloop

import "errors"

// ErrScheduleInPast is returned when scheduling an event at a timestamp
// strictly earlier than the loop's current time.
var ErrScheduleInPast = errors.New("eventloop: cannot schedule event before current time")

// ErrEmpty is returned by Pop when the loop has no pending events.
var ErrEmpty = errors.New("eventloop: no pending events")

// Event is a single unit of work in the simulation, ordered by Timestamp and,
// for ties, by insertion order.
type Event struct {
	Timestamp float64
	Callback  func()
	Context   string

	seq int64
}
