// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/xfer/request"
)

// A Policy controls if and how failed attempts are retried. After every
// failed attempt that still has budget left, a Policy decides whether a
// retry should be done and, if so, how long to wait before it.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries continuable failures immediately. It is the
// policy used by a Runner with no RetryPolicy.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries, whatever the retry budget.
var Never Policy = policy{DeciderFunc(never), Immediate}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("xfer/retry: nil decider")
	}
	if w == nil {
		panic("xfer/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
