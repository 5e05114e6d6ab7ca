package agentbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentbox-sdk/models"
)

// Session binds one logical session id to its current sandbox or snapshot
// handle and its status. The id is minted locally and survives pause/resume
// cycles; the handles do not. At most one of the two handles is populated
// at a time.
//
// A Session expects a single caller-driven flow: one SendMessage in flight
// at most, and no control-plane calls while a stream is open. Violations are
// rejected locally with InvalidStateError rather than forwarded to the
// provider, whose behavior in those cases is undefined.
type Session struct {
	id        string
	createdAt time.Time

	client *Client
	stream *StreamClient
	apiKey string

	mu       sync.Mutex
	state    *stateMachine
	sandbox  *models.SandboxHandle
	snapshot *models.SnapshotHandle
	inFlight bool
}

// CreateSession provisions a sandbox and wraps it in a Session facade.
func (c *Client) CreateSession(ctx context.Context, opts CreateOptions) (*Session, error) {
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		client:    c,
		stream:    NewStreamClient(nil),
		apiKey:    opts.AnthropicAPIKey,
		state:     newStateMachine(),
	}

	s.state.to("create", StatusStarting)
	handle, err := c.CreateSandbox(ctx, opts)
	if err != nil {
		s.state.fail()
		return nil, err
	}
	s.state.to("create", StatusRunning)
	s.sandbox = handle
	return s, nil
}

// ID returns the logical session id.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Status returns the current session status. It may be observed as running
// by other goroutines while a SendMessage call is in flight.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.current()
}

// Sandbox returns the current sandbox handle, or nil when the session is
// paused, terminated, or failed.
func (s *Session) Sandbox() *models.SandboxHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sandbox
}

// Snapshot returns the current snapshot handle, or nil when none is held.
func (s *Session) Snapshot() *models.SnapshotHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// SendMessage sends one user message to the sandbox agent and dispatches the
// resulting event stream to onEvent in arrival order. It fails immediately
// with InvalidStateError unless the session is idle or running, and at most
// one call may be in flight per session.
//
// Status moves to running for the duration of the stream and back to idle on
// message.complete or session.idle. A decoded error event, a decode failure,
// or closure before completion leaves the session in error status; future
// operations stay usable per the state machine. Cancelling ctx ends the call
// cleanly without an error.
func (s *Session) SendMessage(ctx context.Context, text string, onEvent EventHandler) error {
	s.mu.Lock()
	current := s.state.current()
	if s.inFlight {
		s.mu.Unlock()
		return &InvalidStateError{Op: "send message", State: string(StatusRunning)}
	}
	if current != StatusIdle && current != StatusRunning {
		s.mu.Unlock()
		return &InvalidStateError{Op: "send message", State: string(current)}
	}
	if s.sandbox == nil {
		s.mu.Unlock()
		return &InvalidStateError{Op: "send message", State: string(current)}
	}
	s.state.set(StatusRunning)
	s.inFlight = true
	tunnelURL := s.sandbox.TunnelURL
	s.mu.Unlock()

	err := s.stream.Send(ctx, tunnelURL, s.id, text, func(event models.StreamEvent) {
		onEvent(event)
		s.advance(event)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.state.fail()
	}
	return err
}

// advance updates session status from one decoded stream event.
func (s *Session) advance(event models.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case models.EventSessionRunning:
		s.state.to("stream", StatusRunning)
	case models.EventSessionIdle, models.EventMessageComplete:
		s.state.to("stream", StatusIdle)
	case models.EventSessionPaused:
		s.state.to("stream", StatusPaused)
	case models.EventError:
		s.state.fail()
	}
}

// Pause snapshots the sandbox and tears it down. On success the session
// holds the snapshot handle (or no handle at all, when the provider could
// not capture state) and is paused. On failure the session is in error
// status with the sandbox handle preserved, so Pause may be retried.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	if err := s.guardControl("pause", StatusPaused); err != nil {
		s.mu.Unlock()
		return err
	}
	sandboxID := s.sandbox.SandboxID
	s.mu.Unlock()

	snapshot, err := s.client.PauseSandbox(ctx, sandboxID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.fail()
		return err
	}
	s.state.to("pause", StatusPaused)
	s.sandbox = nil
	s.snapshot = nil
	if snapshot.SnapshotID != "" {
		s.snapshot = snapshot
	}
	return nil
}

// Resume boots a new sandbox from the held snapshot. The session keeps its
// id but receives a fresh sandbox handle. Resume fails locally, before any
// network call, when no snapshot id is held. On remote failure the session
// is in error status with the snapshot preserved for retry.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return &InvalidStateError{Op: "resume", State: string(StatusRunning)}
	}
	if s.snapshot == nil || s.snapshot.SnapshotID == "" {
		state := s.state.current()
		s.mu.Unlock()
		return &InvalidStateError{Op: "resume without snapshot", State: string(state)}
	}
	if err := s.state.to("resume", StatusStarting); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshotID := s.snapshot.SnapshotID
	s.mu.Unlock()

	handle, err := s.client.ResumeSandbox(ctx, snapshotID, s.apiKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.fail()
		return err
	}
	s.state.to("resume", StatusRunning)
	s.sandbox = handle
	s.snapshot = nil
	return nil
}

// Delete terminates the remote sandbox, if one is live, and invalidates the
// session's handles. The Session object should be discarded afterwards;
// there is no terminal status value.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return &InvalidStateError{Op: "delete", State: string(StatusRunning)}
	}
	sandbox := s.sandbox
	s.mu.Unlock()

	if sandbox != nil {
		if _, err := s.client.TerminateSandbox(ctx, sandbox.SandboxID); err != nil {
			s.mu.Lock()
			s.state.fail()
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sandbox = nil
	s.snapshot = nil
	return nil
}

// ListFiles lists one level of the sandbox workspace. An empty path defaults
// to the workspace root.
func (s *Session) ListFiles(ctx context.Context, path string) ([]models.FileInfo, error) {
	sandboxID, err := s.liveSandboxID("list files")
	if err != nil {
		return nil, err
	}
	files, err := s.client.ListFiles(ctx, sandboxID, path)
	if err != nil {
		s.recordFailure()
		return nil, err
	}
	return files, nil
}

// ReadFile reads one file from the sandbox workspace.
func (s *Session) ReadFile(ctx context.Context, path string) (string, error) {
	sandboxID, err := s.liveSandboxID("read file")
	if err != nil {
		return "", err
	}
	content, err := s.client.ReadFile(ctx, sandboxID, path)
	if err != nil {
		s.recordFailure()
		return "", err
	}
	return content, nil
}

// Logs fetches the sandbox log bundle. A tail of zero or less defaults to
// the provider's standard tail length.
func (s *Session) Logs(ctx context.Context, tail int) (*models.LogBundle, error) {
	sandboxID, err := s.liveSandboxID("get logs")
	if err != nil {
		return nil, err
	}
	logs, err := s.client.GetLogs(ctx, sandboxID, tail)
	if err != nil {
		s.recordFailure()
		return nil, err
	}
	return logs, nil
}

// guardControl rejects a control-plane mutation while a stream is in flight,
// when no sandbox is live, or when the state machine cannot reach target.
// Caller must hold s.mu.
func (s *Session) guardControl(op string, target Status) error {
	if s.inFlight {
		return &InvalidStateError{Op: op, State: string(StatusRunning)}
	}
	if s.sandbox == nil {
		return &InvalidStateError{Op: op, State: string(s.state.current())}
	}
	if !s.state.can(target) {
		return &InvalidStateError{Op: op, State: string(s.state.current())}
	}
	return nil
}

// liveSandboxID returns the live sandbox id or an InvalidStateError when a
// stream is in flight or the session holds no sandbox.
func (s *Session) liveSandboxID(op string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return "", &InvalidStateError{Op: op, State: string(StatusRunning)}
	}
	if s.sandbox == nil {
		return "", &InvalidStateError{Op: op, State: string(s.state.current())}
	}
	return s.sandbox.SandboxID, nil
}

func (s *Session) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.fail()
}
