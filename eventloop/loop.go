package eventloop

import "container/heap"

// EventLoop is a min-heap of time-ordered events. It is not safe for
// concurrent use: the simulator drives it from a single goroutine, per
// spec (events run to completion before the next is popped).
type EventLoop struct {
	heap        eventHeap
	currentTime float64
	nextSeq     int64
}

// New returns an empty EventLoop with current time 0.
func New() *EventLoop {
	return &EventLoop{}
}

// Schedule inserts an event at ts, failing if ts is strictly before the
// loop's current time. Ties among equal timestamps are broken by insertion
// order (stable FIFO).
func (l *EventLoop) Schedule(ts float64, callback func(), context string) error {
	if ts < l.currentTime {
		return ErrScheduleInPast
	}
	ev := &Event{Timestamp: ts, Callback: callback, Context: context, seq: l.nextSeq}
	l.nextSeq++
	heap.Push(&l.heap, ev)
	return nil
}

// Pop removes and returns the minimum-timestamp event, advancing
// current time to that timestamp. Fails if the loop is empty.
func (l *EventLoop) Pop() (Event, error) {
	if l.heap.Len() == 0 {
		return Event{}, ErrEmpty
	}
	ev := heap.Pop(&l.heap).(*Event)
	l.currentTime = ev.Timestamp
	return *ev, nil
}

// Peek returns the next event without advancing time, and false if the
// loop is empty.
func (l *EventLoop) Peek() (Event, bool) {
	if l.heap.Len() == 0 {
		return Event{}, false
	}
	return *l.heap[0], true
}

// Len reports the number of pending events.
func (l *EventLoop) Len() int {
	return l.heap.Len()
}

// Clear discards all pending events without affecting current time.
func (l *EventLoop) Clear() {
	l.heap = nil
}

// CurrentTime returns the timestamp of the last popped event, or 0 if
// nothing has been popped yet.
func (l *EventLoop) CurrentTime() float64 {
	return l.currentTime
}

// eventHeap implements container/heap.Interface over *Event, ordered by
// (Timestamp, seq) so ties preserve insertion order.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
