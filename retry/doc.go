// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies deciding whether a failed attempt is
// retried, and how long to wait before retrying.
//
// The caller's retry budget (the maxRetries argument of Runner.Exec) is
// enforced by the runner itself. A Policy only decides within that
// budget. The default, DefaultPolicy, retries every continuable failure
// at once, which is the classic behavior; a custom policy can add
// backoff or narrow the retried kinds:
//
//	decider := retry.Continuable.And(retry.Before(5 * time.Second))
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//	policy := retry.NewPolicy(decider, waiter)
package retry
