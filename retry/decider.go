// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/xfer/errkind"
	"github.com/gogama/xfer/request"
)

// A Decider decides if a failed attempt should be retried.
//
// The runner consults a Decider only after a failed attempt, and only
// while the caller's retry budget has attempts left, so a Decider can
// narrow the set of retried failures but never widen the budget.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in deciders Continuable and Never, and the constructors
// Times, Kinds, StatusCode, and Before; or implement your Decider. Use
// DeciderFunc to convert an ordinary function into a Decider, and to
// compose deciders logically using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(e *request.Execution) bool

// Continuable is a decider that indicates a retry if the error kind of
// the most recent attempt is in the continuable set: host resolution,
// connection, HTTP-layer, read, timeout, POST and TLS connect failures.
var Continuable DeciderFunc = continuable

// DefaultDecider is the decider of DefaultPolicy. It is Continuable.
var DefaultDecider = Continuable

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the execution attempt index
// e.Attempt is less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the execution.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// Kinds constructs a retry decider which returns true if the error kind
// of the most recent attempt is one of ks.
func Kinds(ks ...errkind.Kind) DeciderFunc {
	set := make(map[errkind.Kind]bool, len(ks))
	for _, k := range ks {
		set[k] = true
	}
	return func(e *request.Execution) bool {
		return set[e.Kind]
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP status of the most recent attempt. If the attempt received an
// HTTP response, and its status code is contained in the list ss, the
// decider returns true. Otherwise, it returns false.
//
// Only failed attempts reach a decider, so StatusCode is mostly useful
// on plans with FailOnError set.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

func continuable(e *request.Execution) bool {
	return errkind.Continuable(e.Kind)
}

func never(_ *request.Execution) bool {
	return false
}
