package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEventUnmarshalKnownTag(t *testing.T) {
	raw := `{"type": "message.assistant", "data": {"content": "hi there", "isPartial": false}, "timestamp": "2025-06-01T10:00:00Z"}`

	var e StreamEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, EventMessageAssist, e.Type)
	assert.True(t, e.Known())
	assert.False(t, e.Terminal())
	require.NotNil(t, e.Message)
	assert.Equal(t, "hi there", e.Message.Content)
	assert.False(t, e.Message.IsPartial)
	assert.Nil(t, e.Session)
	assert.Nil(t, e.Complete)
}

func TestStreamEventUnmarshalUnknownTag(t *testing.T) {
	raw := `{"type": "message.reasoning", "data": {"content": "thinking"}, "timestamp": "2025-06-01T10:00:00Z"}`

	var e StreamEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.False(t, e.Known())
	assert.Nil(t, e.Message)
	assert.Nil(t, e.Tool)
	assert.Nil(t, e.Err)
}

func TestStreamEventTerminal(t *testing.T) {
	raw := `{"type": "message.complete", "data": {"messageId": "m1", "role": "assistant", "content": "done"}, "timestamp": "2025-06-01T10:00:00Z"}`

	var e StreamEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.True(t, e.Terminal())
	require.NotNil(t, e.Complete)
	assert.Equal(t, "m1", e.Complete.ID)
	assert.Equal(t, RoleAssistant, e.Complete.Role)
}
