// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Runner or Scheduler to extend it
// with custom functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before a
	// channel execution starts.
	//
	// When BeforeExecutionStart fires, the execution is non-nil but the
	// only fields that have been set are the ID and the plan.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual transfer attempt during a Runner execution.
	//
	// When BeforeAttempt fires, the execution's AttemptTimeout holds
	// the timeout that WILL BE applied to the attempt. The Scheduler
	// never fires BeforeAttempt, as its transfers start together.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after a
	// transfer attempt failed with error kind OPERATION_TIMEDOUT.
	//
	// When AfterAttemptTimeout fires, the execution's attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after a transfer
	// attempt is concluded, regardless of whether it concluded
	// successfully or not.
	//
	// When AfterAttempt fires, the execution's Kind, Message, Content
	// and Info describe the attempt. It runs before the retry policy is
	// consulted for a retry decision.
	AfterAttempt
	// BeforeRetryWait identifies the event that occurs after the retry
	// policy decided to retry a failed attempt, and before the Runner
	// sleeps for the wait the policy chose.
	BeforeRetryWait
	// AfterExecutionEnd identifies the event that occurs after the
	// channel execution ends.
	//
	// When AfterExecutionEnd fires, the execution is in the same state
	// it was in after the final attempt EXCEPT that the end time is set
	// to the time the execution ended.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeRetryWait",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// channel execution, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeRetryWait,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
