package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibs-source/batch/runner/golang/internal/redisio"
)

func TestEncodeEntries(t *testing.T) {
	entries := []redisio.Entry{
		{ID: "1-0", Values: map[string]interface{}{"payload": "hello"}},
		{ID: "2-0", Values: map[string]interface{}{"payload": "world"}},
	}

	payloads, err := encodeEntries(entries)
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(payloads[0], &doc))
	assert.Equal(t, "1-0", doc["id"])
	values, ok := doc["values"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", values["payload"])
}

func TestEncodeEntries_Empty(t *testing.T) {
	payloads, err := encodeEntries(nil)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func TestStampEntries_CopiesValues(t *testing.T) {
	src := []redisio.Entry{
		{ID: "1-0", Values: map[string]interface{}{"k": "v"}},
	}

	out, err := stampEntries(src)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "v", out[0].Values["k"])
	assert.NotEmpty(t, out[0].Values["mirrored_at"])
	_, mutated := src[0].Values["mirrored_at"]
	assert.False(t, mutated, "source entry must not be mutated")
}
