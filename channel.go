// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"github.com/gogama/xfer/engine"
	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/result"
	"github.com/google/uuid"
)

// A Channel is one configured, independently addressable pending
// transfer: a request plan bound to an engine handle, plus an ID that
// never changes.
//
// Change a channel's configuration through its Plan. The plan is
// attached to the engine at the start of every execution, so changes
// take effect on the next one. A Channel has a single owner. It must not
// be changed while it executes, and must not be registered with more
// than one Scheduler.
type Channel struct {
	id       string
	plan     *request.Plan
	handle   *engine.Handle
	executed bool
}

// NewChannel returns a channel executing plan. Engine initialization
// errors, such as a malformed URL, are returned here rather than when
// the channel executes.
func NewChannel(plan *request.Plan) (*Channel, error) {
	if plan == nil {
		return nil, invalidArgument("nil plan")
	}
	var rawURL string
	if plan.URL != nil {
		rawURL = plan.URL.String()
	}
	h, err := engine.New(rawURL)
	if err != nil {
		return nil, err
	}
	return &Channel{
		id:     uuid.NewString(),
		plan:   plan,
		handle: h,
	}, nil
}

// NewChannelURL is shorthand for creating a plan with request.NewPlan
// and passing it to NewChannel.
func NewChannelURL(method, url string, body interface{}) (*Channel, error) {
	p, err := request.NewPlan(method, url, body)
	if err != nil {
		return nil, err
	}
	return NewChannel(p)
}

// ID returns the channel's process-unique ID.
func (ch *Channel) ID() string {
	return ch.id
}

// URL returns the plan's URL as a string, or "" if it has none.
func (ch *Channel) URL() string {
	if ch.plan.URL == nil {
		return ""
	}
	return ch.plan.URL.String()
}

// Plan returns the channel's plan.
func (ch *Channel) Plan() *request.Plan {
	return ch.plan
}

// Executed reports whether at least one transfer attempt was made.
func (ch *Channel) Executed() bool {
	return ch.executed
}

// Exec executes the channel with a zero-value Runner. See Runner.Exec.
func (ch *Channel) Exec(maxRetries int, throwOnFinalFailure bool) (*result.Entity, error) {
	var r Runner
	return r.Exec(ch, maxRetries, throwOnFinalFailure)
}

// Close releases the channel's transfer resources. A closed channel
// fails every later execution. Close is idempotent.
func (ch *Channel) Close() {
	ch.handle.Close()
}

func (ch *Channel) attach(o engine.Options) error {
	return ch.handle.Configure(o)
}
