// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/xfer/request"
)

// A Waiter specifies how long to wait before retrying a failed attempt.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
//
// The runner will not call the Waiter on a retry policy if the policy
// Decider returned false.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// Immediate is a Waiter that never waits, so a retry follows its failed
// attempt at once.
var Immediate = NewFixedWaiter(0)

// DefaultWaiter is the waiter of DefaultPolicy. It is Immediate.
var DefaultWaiter = Immediate

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing an exponential backoff
// formula with optional jitter.
//
// The formula implemented is the "Full Jitter" approach described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Parameters base and max control the exponential calculation of the
// ceiling:
//
//	ceil := min(base * 2**attempt, max)
//
// Base and max must be positive values, and max must be at least equal
// to base.
//
// Parameter jitter is used to generate a random number between 0 and
// ceil. To make a waiter that does not jitter and simply returns
// ceil on each attempt, pass nil for jitter. Otherwise you may specify
// either a random number generator seed value (as a time.Time, int, or
// int64) or a random number generator (as a rand.Source).
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("xfer/retry: base must be positive")
	}
	if max < base {
		panic("xfer/retry: max must be at least base")
	}
	return &jitterExpWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type jitterExpWaiter struct {
	base time.Duration
	max  time.Duration
	rand *rand.Rand
	lock sync.Mutex
}

func (w *jitterExpWaiter) Wait(e *request.Execution) time.Duration {
	ceil := int64(w.max)
	if e.Attempt < 0 {
		ceil = int64(w.base)
	} else if e.Attempt < 63 {
		exp := int64(1) << e.Attempt
		if c := int64(w.base) * exp; c/exp == int64(w.base) && c < ceil {
			ceil = c
		}
	}
	if w.rand == nil {
		return time.Duration(ceil)
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	return time.Duration(w.rand.Int63n(ceil))
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("xfer/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("xfer/retry: invalid jitter type")
	}
	return rand.New(s)
}
