package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackedVariablesRecordsWritesInOrder(t *testing.T) {
	tv := NewTrackedVariables()
	tv.Set("a", 1)
	tv.Set("b", 2)
	tv.Set("a", 3)

	v, ok := tv.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	writes := tv.Writes()
	assert.Equal(t, []Write{{"a", 1}, {"b", 2}, {"a", 3}}, writes)

	snap := tv.Snapshot()
	assert.Equal(t, map[string]any{"a": 3, "b": 2}, snap)
}

func TestTrackedVariablesGetMissing(t *testing.T) {
	tv := NewTrackedVariables()
	_, ok := tv.Get("missing")
	assert.False(t, ok)
}
