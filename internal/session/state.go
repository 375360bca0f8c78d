package session

import "fmt"

// MaxReconnectAttempts caps automatic reconnection after a disconnect.
// Authentication failures are not counted against it.
const MaxReconnectAttempts = 5

// State is the observable session state. It is only changed through Transition.
type State struct {
	Ready    bool
	Code     string
	Attempts int
}

// EventKind enumerates the lifecycle events a session client can emit.
type EventKind int

const (
	EventCode EventKind = iota
	EventReady
	EventDisconnected
	EventAuthFailed
	// EventCodeExpired reports a login code window that closed unscanned.
	EventCodeExpired
)

func (k EventKind) String() string {
	switch k {
	case EventCode:
		return "code"
	case EventReady:
		return "ready"
	case EventDisconnected:
		return "disconnected"
	case EventAuthFailed:
		return "auth_failure"
	case EventCodeExpired:
		return "code_expired"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a lifecycle notification. Code is set for EventCode, Reason for
// EventDisconnected, EventAuthFailed and EventCodeExpired.
type Event struct {
	Kind   EventKind
	Code   string
	Reason string
}

// Action is the follow-up the manager must run after a transition.
type Action int

const (
	ActionNone Action = iota
	ActionReconnect
	ActionReinitialize
	ActionGiveUp
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionReconnect:
		return "reconnect"
	case ActionReinitialize:
		return "reinitialize"
	case ActionGiveUp:
		return "give_up"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Transition applies evt to s and returns the next state with the action to run.
func Transition(s State, evt Event) (State, Action) {
	switch evt.Kind {
	case EventCode:
		s.Code = evt.Code
		s.Ready = false
		return s, ActionNone

	case EventReady:
		return State{Ready: true}, ActionNone

	case EventDisconnected:
		s.Ready = false
		s.Code = ""
		if s.Attempts >= MaxReconnectAttempts {
			return s, ActionGiveUp
		}
		s.Attempts++
		return s, ActionReconnect

	case EventAuthFailed:
		s.Ready = false
		s.Code = ""
		return s, ActionReinitialize

	case EventCodeExpired:
		// a fresh login code is always offered; Attempts only tracks lost sessions
		s.Ready = false
		s.Code = ""
		return s, ActionReinitialize
	}
	return s, ActionNone
}
