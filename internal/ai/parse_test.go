package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONObjectPlain(t *testing.T) {
	data, err := ParseJSONObject(`{"trust_score": 75, "flags": []}`)
	require.NoError(t, err)
	assert.Equal(t, float64(75), data["trust_score"])
}

func TestParseJSONObjectFenced(t *testing.T) {
	data, err := ParseJSONObject("```json\n{\"ok\": true}\n```")
	require.NoError(t, err)
	assert.Equal(t, true, data["ok"])

	data, err = ParseJSONObject("```\n{\"ok\": true}\n```")
	require.NoError(t, err)
	assert.Equal(t, true, data["ok"])
}

func TestParseJSONObjectSurroundingProse(t *testing.T) {
	data, err := ParseJSONObject(`Here is my assessment:
{"trust_score": 40, "classification": "Review Needed"}
Let me know if you need more detail.`)
	require.NoError(t, err)
	assert.Equal(t, "Review Needed", data["classification"])
}

func TestParseJSONObjectNested(t *testing.T) {
	data, err := ParseJSONObject(`{"outer": {"inner": 1}}`)
	require.NoError(t, err)
	assert.Contains(t, data, "outer")
}

func TestParseJSONObjectFailures(t *testing.T) {
	_, err := ParseJSONObject("no json here")
	assert.Error(t, err)

	_, err = ParseJSONObject("")
	assert.Error(t, err)

	_, err = ParseJSONObject(`{"broken":`)
	assert.Error(t, err)

	// Arrays are not objects.
	_, err = ParseJSONObject(`[1, 2, 3]`)
	assert.Error(t, err)
}
