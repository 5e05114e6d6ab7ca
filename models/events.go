package models

import (
	"encoding/json"
	"time"
)

// EventType tags a streamed event record.
type EventType string

// The event tags the provider emits on a message stream. Tags outside this
// set are skipped by the stream client so newer providers can add variants
// without breaking older SDKs.
const (
	EventSessionStarting EventType = "session.starting"
	EventSessionRunning  EventType = "session.running"
	EventSessionIdle     EventType = "session.idle"
	EventSessionPaused   EventType = "session.paused"
	EventMessageUser     EventType = "message.user"
	EventMessageAssist   EventType = "message.assistant"
	EventMessageTool     EventType = "message.tool"
	EventMessageComplete EventType = "message.complete"
	EventError           EventType = "error"
)

// StreamEvent is one decoded record from a message stream. Exactly one of
// the payload fields matching Type is populated. Events are ephemeral; the
// SDK does not retain them after handler dispatch.
type StreamEvent struct {
	Type      EventType
	Timestamp time.Time

	Session  *SessionPayload
	Message  *MessagePayload
	Tool     *ToolPayload
	Complete *Message
	Err      *ErrorPayload
}

// SessionPayload accompanies the session.* lifecycle events.
type SessionPayload struct {
	SessionID string `json:"sessionId"`
	SandboxID string `json:"sandboxId,omitempty"`
}

// MessagePayload accompanies message.user and message.assistant events.
// Assistant content arrives incrementally; IsPartial is false on the final
// chunk of a message.
type MessagePayload struct {
	MessageID string `json:"messageId,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Content   string `json:"content"`
	IsPartial bool   `json:"isPartial"`
}

// ToolPayload accompanies message.tool events. Result is present only on
// the "result" phase of a tool call.
type ToolPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
	Result    string `json:"result,omitempty"`
}

// ErrorPayload accompanies a decoded error event. It reports an
// application-level failure inside the sandbox; the stream itself decoded
// it successfully.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// streamRecord is the wire envelope of one event record.
type streamRecord struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// UnmarshalJSON decodes a wire record into its typed variant. An
// unrecognized tag yields an event with only Type and Timestamp set;
// Known reports whether the tag maps to a payload.
func (e *StreamEvent) UnmarshalJSON(b []byte) error {
	var rec streamRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}

	*e = StreamEvent{Type: rec.Type, Timestamp: rec.Timestamp}
	if len(rec.Data) == 0 {
		return nil
	}

	switch rec.Type {
	case EventSessionStarting, EventSessionRunning, EventSessionIdle, EventSessionPaused:
		e.Session = &SessionPayload{}
		return json.Unmarshal(rec.Data, e.Session)
	case EventMessageUser, EventMessageAssist:
		e.Message = &MessagePayload{}
		return json.Unmarshal(rec.Data, e.Message)
	case EventMessageTool:
		e.Tool = &ToolPayload{}
		return json.Unmarshal(rec.Data, e.Tool)
	case EventMessageComplete:
		e.Complete = &Message{}
		return json.Unmarshal(rec.Data, e.Complete)
	case EventError:
		e.Err = &ErrorPayload{}
		return json.Unmarshal(rec.Data, e.Err)
	}
	return nil
}

// Known reports whether the event's tag is one of the documented variants.
func (e *StreamEvent) Known() bool {
	switch e.Type {
	case EventSessionStarting, EventSessionRunning, EventSessionIdle, EventSessionPaused,
		EventMessageUser, EventMessageAssist, EventMessageTool, EventMessageComplete,
		EventError:
		return true
	}
	return false
}

// Terminal reports whether the event ends its stream.
func (e *StreamEvent) Terminal() bool {
	return e.Type == EventMessageComplete
}
