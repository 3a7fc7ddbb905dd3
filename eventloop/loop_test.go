package eventloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRejectsPast(t *testing.T) {
	l := New()
	require.NoError(t, l.Schedule(5, func() {}, "a"))
	_, err := l.Pop()
	require.NoError(t, err)
	assert.Equal(t, float64(5), l.CurrentTime())

	err = l.Schedule(4, func() {}, "b")
	assert.ErrorIs(t, err, ErrScheduleInPast)

	// scheduling exactly at current time is allowed
	assert.NoError(t, l.Schedule(5, func() {}, "c"))
}

func TestPopOrdersByTimestampThenInsertion(t *testing.T) {
	l := New()
	var order []string
	push := func(ts float64, tag string) {
		require.NoError(t, l.Schedule(ts, func() { order = append(order, tag) }, tag))
	}
	push(2, "b1")
	push(1, "a")
	push(2, "b2")
	push(3, "c")

	for l.Len() > 0 {
		ev, err := l.Pop()
		require.NoError(t, err)
		ev.Callback()
	}

	assert.Equal(t, []string{"a", "b1", "b2", "c"}, order)
}

func TestPeekDoesNotAdvanceTime(t *testing.T) {
	l := New()
	require.NoError(t, l.Schedule(10, func() {}, "x"))
	ev, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, float64(10), ev.Timestamp)
	assert.Equal(t, float64(0), l.CurrentTime())
}

func TestPopEmptyFails(t *testing.T) {
	l := New()
	_, err := l.Pop()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestClear(t *testing.T) {
	l := New()
	require.NoError(t, l.Schedule(1, func() {}, "x"))
	require.NoError(t, l.Schedule(2, func() {}, "y"))
	l.Clear()
	assert.Equal(t, 0, l.Len())
}
