package agentbox

import "fmt"

// TransportError represents a non-success HTTP status from the provider.
// The raw response body is preserved for diagnosis.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sandbox api error (status %d): %s", e.StatusCode, e.Body)
}

// RemoteError represents an application-level failure reported inside a
// successful HTTP response, via the envelope's error field. It is checked
// after, and separately from, the transport status.
type RemoteError struct {
	Code    string
	Message string
	Details string
	Status  int
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sandbox remote error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("sandbox remote error: %s", e.Message)
}

// InvalidStateError is returned when an operation is attempted in a session
// state that cannot accept it. The operation is rejected before any network
// call and the session state is left unchanged.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Op, e.State)
}

// StreamClosedError is returned when the event stream closes before a
// terminal message.complete event. A decoded "error" event is not a
// StreamClosedError; that is a well-formed payload delivered to the handler.
type StreamClosedError struct {
	Err error
}

func (e *StreamClosedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event stream closed before completion: %v", e.Err)
	}
	return "event stream closed before completion"
}

func (e *StreamClosedError) Unwrap() error {
	return e.Err
}
