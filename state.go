package agentbox

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusError    Status = "error"
)

// validTransitions is the full set of legal state changes. There is no
// terminal status: error is recoverable by a subsequent explicit operation,
// and deletion removes the Session object rather than marking it.
var validTransitions = map[Status][]Status{
	StatusIdle:     {StatusStarting},
	StatusStarting: {StatusRunning},
	StatusRunning:  {StatusIdle, StatusPaused},
	StatusPaused:   {StatusStarting},
	// Recovery edges: a failed pause or resume leaves the prior handle in
	// place, so the caller may retry the same operation out of error.
	StatusError: {StatusStarting, StatusPaused},
}

// stateMachine holds the authoritative status of one session. It is advanced
// only by control-plane responses and by decoded stream events; illegal
// transitions are rejected without changing state.
type stateMachine struct {
	status Status
}

func newStateMachine() *stateMachine {
	return &stateMachine{status: StatusIdle}
}

func (m *stateMachine) current() Status {
	return m.status
}

// to moves the machine to target if the transition is legal, otherwise it
// returns an InvalidStateError naming the rejected operation and leaves the
// state untouched. A transition to error is always legal.
func (m *stateMachine) to(op string, target Status) error {
	if target == StatusError {
		m.status = StatusError
		return nil
	}
	for _, allowed := range validTransitions[m.status] {
		if allowed == target {
			m.status = target
			return nil
		}
	}
	return &InvalidStateError{Op: op, State: string(m.status)}
}

// can reports whether a transition to target is currently legal.
func (m *stateMachine) can(target Status) bool {
	if target == StatusError {
		return true
	}
	for _, allowed := range validTransitions[m.status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// set moves the machine without a legality check. Used by the Session
// facade for edges it has already validated at the operation boundary,
// such as re-entering running from idle when a message is sent.
func (m *stateMachine) set(target Status) {
	m.status = target
}

// fail records a failure. Every state may transition to error.
func (m *stateMachine) fail() {
	m.status = StatusError
}
