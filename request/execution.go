// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"time"

	"github.com/gogama/xfer/engine"
	"github.com/gogama/xfer/errkind"
)

// An Execution represents the state of a single channel execution.
//
// When a channel is executed, an Execution is created for it and
// updated as the execution progresses (for example when an attempt
// ends, or when a retry is needed). Timeout and retry policies and
// event handlers receive the Execution.
//
// Policies and event handlers may set values on an Execution using its
// SetValue method and read them back using the Value method. They
// should treat the exported fields as read-only, as the execution state
// drives the retry loop.
type Execution struct {
	// ID is the ID of the channel being executed.
	ID string

	// Plan is the plan of the channel being executed. It is never nil.
	Plan *Plan

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// Attempt is the zero-based number of the current attempt. It is
	// zero on the initial attempt, one on the first retry, and so on.
	// When the execution has ended, Attempt is the number of the last
	// attempt made.
	Attempt int

	// AttemptTimeout is the timeout applied to the current attempt.
	// Zero means no limit.
	AttemptTimeout time.Duration

	// AttemptTimeouts is the count of attempts that ended with error
	// kind OPERATION_TIMEDOUT.
	AttemptTimeouts int

	// Kind is the error kind of the most recent attempt. It is
	// errkind.OK while an attempt is underway and after a successful
	// one.
	Kind errkind.Kind

	// Message is the engine's error message for the most recent
	// attempt, or "".
	Message string

	// Content is the captured transfer of the most recent attempt. It
	// is nil if the attempt failed or the plan does not capture.
	Content []byte

	// Info holds the engine statistics of the most recent attempt.
	Info engine.Info

	data context.Context
}

// Err reports whether the most recent attempt failed.
func (e *Execution) Err() bool {
	return e.Kind != errkind.OK
}

// StatusCode returns the HTTP status of the most recent attempt, or 0
// if there was no HTTP response.
func (e *Execution) StatusCode() int {
	code, _ := e.Info.Int(engine.InfoHTTPCode)
	return int(code)
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has Ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended. Once it returns
// true there are no further changes to the execution.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether the most recent attempt timed out.
func (e *Execution) Timeout() bool {
	return e.Kind == errkind.OperationTimedout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
