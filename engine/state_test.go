package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	type testCase struct {
		name        string
		state       State
		event       Event
		expected    State
		expectError bool
	}

	tests := []testCase{
		{name: "initialized notifies", state: StateInitialized, event: EventNotify, expected: StateNotificationSent},
		{name: "notified approves", state: StateNotificationSent, event: EventApprove, expected: StateApproved},
		{name: "notified rejects", state: StateNotificationSent, event: EventReject, expected: StateRejected},
		{name: "notified times out", state: StateNotificationSent, event: EventDeadline, expected: StateTimeout},
		{name: "approved logs", state: StateApproved, event: EventLog, expected: StateLogged},
		{name: "rejected logs", state: StateRejected, event: EventLog, expected: StateLogged},
		{name: "timeout logs", state: StateTimeout, event: EventLog, expected: StateLogged},
		{name: "logged responds", state: StateLogged, event: EventRespond, expected: StateResponded},

		{name: "initialized cannot approve", state: StateInitialized, event: EventApprove, expectError: true},
		{name: "approved cannot reject", state: StateApproved, event: EventReject, expectError: true},
		{name: "timeout cannot approve late", state: StateTimeout, event: EventApprove, expectError: true},
		{name: "responded is terminal", state: StateResponded, event: EventNotify, expectError: true},
		{name: "responded accepts no deadline", state: StateResponded, event: EventDeadline, expectError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			if tc.expectError {
				assert.Error(t, err)
				assert.Equal(t, tc.state, next, "illegal transitions must not move the state")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, next)
		})
	}
}
