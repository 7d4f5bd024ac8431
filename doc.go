// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package xfer executes HTTP transfers, either one channel at a time
through a bounded retry loop, or many channels concurrently under a
single control loop.

Create a Channel from a request plan, then execute it with a Runner:

	ch, err := xfer.NewChannelURL("GET", "https://www.example.com", nil)
	...
	ch.Plan().SetReturnTransfer(true, true)
	r := &xfer.Runner{}
	ent, err := r.Exec(ch, 3, false)
	...
	fmt.Println(ent.StatusCode(), string(ent.Body))

The Runner makes up to maxRetries+1 attempts, retrying failures whose
error kind is continuable (see package errkind). For control over the
retry decisions and timing, create a custom retry policy using
components from package retry:

	retryWaiter := retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	r := &xfer.Runner{
		RetryPolicy: retryPolicy,
	}

For control over individual attempt timeouts, set a custom timeout
policy using package timeout:

	r := &xfer.Runner{
		TimeoutPolicy: timeout.Adaptive(2*time.Second, 5*time.Second),
	}

To run many channels at once, register them with a Scheduler. Each
channel gets exactly one attempt, and the results come back keyed by
channel ID:

	s, err := xfer.NewScheduler(ch1, ch2, ch3)
	...
	results, err := s.Exec()
	...
	for id, ent := range results {
		fmt.Println(id, ent.Success, ent.ErrorKind)
	}

A failed transfer is reported in its result.Entity rather than as an
error. Errors from Exec mean the execution could not run at all, and
wrap one of ErrInvalidArgument, ErrDuplicateKey, ErrBatchStart or
ErrNotExecuted.

To hook into the fine-grained details of an execution, install a
handler into the appropriate handler chain:

	handlers := &xfer.HandlerGroup{}
	handlers.PushBack(xfer.BeforeAttempt, xfer.HandlerFunc(
		func(_ xfer.Event, e *request.Execution) {
			log.Printf("Attempt %d of %s", e.Attempt, e.ID)
		}),
	)
	r := &xfer.Runner{
		Handlers: handlers,
	}
*/
package xfer
