package agentbox

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentbox-sdk/models"
)

// fakeProvider is a minimal in-process stand-in for the sandbox provider:
// one control-plane server answering every operation endpoint by host, and
// one stream server standing in for the sandbox tunnel.
type fakeProvider struct {
	control *httptest.Server
	stream  *httptest.Server

	mu    sync.Mutex
	calls map[string]int

	pauseBody     string
	pauseStatus   int
	streamLines   []string
	resumeSandbox string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		calls:         make(map[string]int),
		pauseBody:     `{"snapshot_id": "snap_1"}`,
		pauseStatus:   http.StatusOK,
		resumeSandbox: "sb_2",
	}

	p.stream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.record("stream")
		flusher := w.(http.Flusher)
		for _, line := range p.streamLines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
	t.Cleanup(p.stream.Close)

	p.control = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.Host, "api-create-sandbox"):
			p.record("create")
			fmt.Fprintf(w, `{"sandbox_id": "sb_1", "tunnel_url": %q}`, p.stream.URL)
		case strings.Contains(r.Host, "api-pause-sandbox"):
			p.record("pause")
			w.WriteHeader(p.pauseStatus)
			w.Write([]byte(p.pauseBody))
		case strings.Contains(r.Host, "api-resume-sandbox"):
			p.record("resume")
			fmt.Fprintf(w, `{"sandbox_id": %q, "tunnel_url": %q}`, p.resumeSandbox, p.stream.URL)
		case strings.Contains(r.Host, "api-terminate-sandbox"):
			p.record("terminate")
			w.Write([]byte(`{"success": true}`))
		case strings.Contains(r.Host, "api-list-files"):
			p.record("list-files")
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.Error(w, "unexpected operation: "+r.Host, http.StatusNotFound)
		}
	}))
	t.Cleanup(p.control.Close)

	return p
}

func (p *fakeProvider) record(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[op]++
}

func (p *fakeProvider) count(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

func (p *fakeProvider) newSession(t *testing.T) *Session {
	t.Helper()
	client := newTestClient(t, p.control)
	session, err := client.CreateSession(context.Background(), CreateOptions{AnthropicAPIKey: "sk-ant-test"})
	require.NoError(t, err)
	return session
}

func TestSessionCreate(t *testing.T) {
	provider := newFakeProvider(t)
	session := provider.newSession(t)

	assert.NotEmpty(t, session.ID())
	assert.False(t, session.CreatedAt().IsZero())
	assert.Equal(t, StatusRunning, session.Status())

	require.NotNil(t, session.Sandbox())
	assert.Equal(t, "sb_1", session.Sandbox().SandboxID)
	assert.Nil(t, session.Snapshot())
}

func TestSessionSendMessageScenario(t *testing.T) {
	provider := newFakeProvider(t)
	provider.streamLines = []string{
		event("session.starting", `{"sessionId": "sess_1"}`),
		event("session.running", `{"sessionId": "sess_1", "sandboxId": "sb_1"}`),
		event("message.assistant", `{"content": "hi there", "isPartial": false}`),
		event("message.complete", `{"messageId": "m1", "role": "assistant", "content": "hi there"}`),
	}
	session := provider.newSession(t)

	var got []models.EventType
	err := session.SendMessage(context.Background(), "hi", func(e models.StreamEvent) {
		got = append(got, e.Type)
		// Mid-stream the session is observable as running.
		assert.Equal(t, StatusRunning, session.Status())
	})

	require.NoError(t, err)
	assert.Equal(t, []models.EventType{
		models.EventSessionStarting,
		models.EventSessionRunning,
		models.EventMessageAssist,
		models.EventMessageComplete,
	}, got)
	assert.Equal(t, StatusIdle, session.Status())
}

func TestSessionRoundTrip(t *testing.T) {
	provider := newFakeProvider(t)
	session := provider.newSession(t)
	id := session.ID()

	require.NoError(t, session.Pause(context.Background()))
	assert.Equal(t, StatusPaused, session.Status())
	assert.Nil(t, session.Sandbox())
	require.NotNil(t, session.Snapshot())
	assert.Equal(t, "snap_1", session.Snapshot().SnapshotID)

	require.NoError(t, session.Resume(context.Background()))
	assert.Equal(t, StatusRunning, session.Status())
	assert.Nil(t, session.Snapshot())

	// Resume yields a fresh sandbox bound to the same logical session.
	require.NotNil(t, session.Sandbox())
	assert.Equal(t, "sb_2", session.Sandbox().SandboxID)
	assert.Equal(t, id, session.ID())
}

func TestSessionPauseWithoutSnapshot(t *testing.T) {
	provider := newFakeProvider(t)
	provider.pauseBody = `{"snapshot_id": null}`
	session := provider.newSession(t)

	require.NoError(t, session.Pause(context.Background()))
	assert.Equal(t, StatusPaused, session.Status())
	assert.Nil(t, session.Sandbox())
	assert.Nil(t, session.Snapshot())

	// With no snapshot id held, resume must fail locally before any
	// network call.
	err := session.Resume(context.Background())
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, 0, provider.count("resume"))
	assert.Equal(t, StatusPaused, session.Status())
}

func TestSessionPauseFailurePreservesHandle(t *testing.T) {
	provider := newFakeProvider(t)
	provider.pauseStatus = http.StatusInternalServerError
	provider.pauseBody = "snapshot backend down"
	session := provider.newSession(t)

	err := session.Pause(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, StatusError, session.Status())

	// The sandbox handle survives the failure so pause can be retried
	// against the same remote resource.
	require.NotNil(t, session.Sandbox())
	assert.Equal(t, "sb_1", session.Sandbox().SandboxID)

	provider.pauseStatus = http.StatusOK
	provider.pauseBody = `{"snapshot_id": "snap_2"}`
	require.NoError(t, session.Pause(context.Background()))
	assert.Equal(t, StatusPaused, session.Status())
	assert.Equal(t, "snap_2", session.Snapshot().SnapshotID)
}

func TestSessionSendMessageInvalidStates(t *testing.T) {
	provider := newFakeProvider(t)
	session := provider.newSession(t)

	require.NoError(t, session.Pause(context.Background()))

	err := session.SendMessage(context.Background(), "hi", func(models.StreamEvent) {
		t.Error("no events expected")
	})
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, 0, provider.count("stream"))
	assert.Equal(t, StatusPaused, session.Status())
}

func TestSessionControlRejectedMidStream(t *testing.T) {
	provider := newFakeProvider(t)
	provider.streamLines = []string{
		event("message.assistant", `{"content": "working", "isPartial": true}`),
		event("message.complete", `{"messageId": "m1", "role": "assistant", "content": "done"}`),
	}
	session := provider.newSession(t)

	var pauseErr error
	err := session.SendMessage(context.Background(), "hi", func(e models.StreamEvent) {
		if e.Type == models.EventMessageAssist {
			// The provider associates one push channel per sandbox, so
			// control-plane calls are rejected locally while streaming.
			pauseErr = session.Pause(context.Background())
		}
	})
	require.NoError(t, err)

	var stateErr *InvalidStateError
	require.ErrorAs(t, pauseErr, &stateErr)
	assert.Equal(t, 0, provider.count("pause"))
}

func TestSessionStreamClosureDrivesError(t *testing.T) {
	provider := newFakeProvider(t)
	provider.streamLines = []string{
		event("message.assistant", `{"content": "hi", "isPartial": true}`),
	}
	session := provider.newSession(t)

	err := session.SendMessage(context.Background(), "hi", func(models.StreamEvent) {})
	var closedErr *StreamClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, StatusError, session.Status())

	// A failed stream does not corrupt later explicit operations.
	require.NoError(t, session.Pause(context.Background()))
	assert.Equal(t, StatusPaused, session.Status())
}

func TestSessionErrorEventDrivesError(t *testing.T) {
	provider := newFakeProvider(t)
	provider.streamLines = []string{
		event("error", `{"message": "agent crashed", "code": "agent_error"}`),
		event("message.complete", `{"messageId": "m1", "role": "assistant", "content": ""}`),
	}
	session := provider.newSession(t)

	var sawError bool
	err := session.SendMessage(context.Background(), "hi", func(e models.StreamEvent) {
		if e.Type == models.EventError {
			sawError = true
		}
	})

	// The stream itself completed; the error event is an application
	// failure that still lands the session in error status.
	require.NoError(t, err)
	assert.True(t, sawError)
	assert.Equal(t, StatusError, session.Status())
}

func TestSessionControlFailureDrivesError(t *testing.T) {
	provider := newFakeProvider(t)
	session := provider.newSession(t)

	_, err := session.ListFiles(context.Background(), "")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, StatusError, session.Status())
}

func TestSessionDelete(t *testing.T) {
	provider := newFakeProvider(t)
	session := provider.newSession(t)

	require.NoError(t, session.Delete(context.Background()))
	assert.Equal(t, 1, provider.count("terminate"))
	assert.Nil(t, session.Sandbox())
	assert.Nil(t, session.Snapshot())
}
