package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaOrder(t *testing.T) {
	meta := NewMeta()
	meta.Set("zebra", "1")
	meta.Set("alpha", "2")
	meta.Set("mike", "3")

	assert.Equal(t, []string{"zebra", "alpha", "mike"}, meta.Keys())

	// Overwriting keeps the original position.
	meta.Set("alpha", "updated")
	assert.Equal(t, []string{"zebra", "alpha", "mike"}, meta.Keys())
	v, ok := meta.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "updated", v)
}

func TestMetaJSONRoundTrip(t *testing.T) {
	meta := NewMeta()
	meta.Set("old_status", "draft")
	meta.Set("new_status", "publish")
	meta.Set("revision", "7")

	encoded, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.Equal(t, `{"old_status":"draft","new_status":"publish","revision":"7"}`, string(encoded))

	var decoded Meta
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, meta.Keys(), decoded.Keys())
	v, _ := decoded.Get("revision")
	assert.Equal(t, "7", v)
}

func TestMetaEmpty(t *testing.T) {
	meta := NewMeta()
	encoded, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(encoded))
	assert.Equal(t, 0, meta.Len())

	var nilMeta *Meta
	assert.Equal(t, 0, nilMeta.Len())
	assert.Nil(t, nilMeta.Clone())
}

func TestMetaClone(t *testing.T) {
	meta := NewMeta()
	meta.Set("a", "1")

	cp := meta.Clone()
	cp.Set("a", "mutated")
	cp.Set("b", "2")

	v, _ := meta.Get("a")
	assert.Equal(t, "1", v)
	_, ok := meta.Get("b")
	assert.False(t, ok)
}
