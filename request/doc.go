// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (the configuration of one
channel's transfer) and Execution (the state of one channel execution).

A Plan describes what to transfer and how: method, URL, headers and a
pre-buffered body, plus the capture mode, redirect policy, timeouts, TLS
and proxy settings the transfer engine applies. Create one with NewPlan:

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	p.SetReturnTransfer(true, true)
	p.SetFollowLocation(true, 10, true)
	ch, err := xfer.NewChannel(p)

A plan may carry a context which bounds the whole execution of a
channel, retries included:

	p, err := request.NewPlanWithContext(ctx, "POST", "https://example.com/upload", body)

Execution is the input type for the callbacks invoked while a channel is
executed: timeout policies, retry policies, and event handlers. You will
typically not allocate Execution instances yourself.
*/
package request
