package engine

import (
	"fmt"

	"github.com/viant/oversight/model/approval"
)

// State enumerates the lifecycle positions of one approval request.
type State string

const (
	StateInitialized      State = "Initialized"
	StateNotificationSent State = "NotificationSent"
	StateApproved         State = "Approved"
	StateRejected         State = "Rejected"
	StateTimeout          State = "Timeout"
	StateLogged           State = "Logged"
	StateResponded        State = "Responded"
)

// Event drives state transitions.
type Event string

const (
	EventNotify   Event = "notify"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventDeadline Event = "deadline"
	EventLog      Event = "log"
	EventRespond  Event = "respond"
)

// Transition is the pure (state, event) -> state function of the lifecycle.
// Any pair outside the table is an illegal transition; in particular no
// event leads out of StateResponded, which makes terminal states immutable.
func Transition(state State, event Event) (State, error) {
	switch state {
	case StateInitialized:
		if event == EventNotify {
			return StateNotificationSent, nil
		}
	case StateNotificationSent:
		switch event {
		case EventApprove:
			return StateApproved, nil
		case EventReject:
			return StateRejected, nil
		case EventDeadline:
			return StateTimeout, nil
		}
	case StateApproved, StateRejected, StateTimeout:
		if event == EventLog {
			return StateLogged, nil
		}
	case StateLogged:
		if event == EventRespond {
			return StateResponded, nil
		}
	}
	return state, fmt.Errorf("illegal transition %v on %v", event, state)
}

// eventFor maps a terminal decision status onto its transition event.
func eventFor(status approval.Status) Event {
	switch status {
	case approval.StatusApproved:
		return EventApprove
	case approval.StatusRejected:
		return EventReject
	default:
		return EventDeadline
	}
}
