// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"context"
	"fmt"
	"time"

	"github.com/gogama/xfer/engine"
	"github.com/gogama/xfer/errkind"
	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/result"
	"github.com/gogama/xfer/retry"
	"github.com/gogama/xfer/timeout"
	"github.com/rs/zerolog"
)

// A Runner executes one channel at a time through a bounded retry loop,
// producing a single result.Entity. Its zero value is a valid
// configuration.
//
// The zero value runner retries failures whose error kind is in the
// continuable set (see errkind.Continuable) without waiting between
// attempts, applies the plan's Timeout to every attempt, runs no event
// handlers and logs nothing.
//
// A Runner holds no per-execution state, so a single Runner may execute
// different channels from multiple goroutines at once. A Channel must
// not be executed by two goroutines at once.
type Runner struct {
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying. It is consulted
	// only while retry budget remains.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used, which
	// applies the plan's Timeout.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a channel.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives debug records for each attempt and retry.
	//
	// If Logger is nil, nothing is logged.
	Logger *zerolog.Logger
}

// Exec executes ch and returns its result, attempting the transfer up
// to maxRetries+1 times. A maxRetries of zero makes exactly one attempt.
//
// The loop stops on the first successful attempt. A failed attempt is
// retried only while retry budget remains and the retry policy agrees;
// with the default policy that means its error kind is continuable.
// Otherwise the failure is final: the returned Entity has Success false
// and carries the engine's error kind and message. If
// throwOnFinalFailure is set, the failed Entity is returned together
// with a *TransferError.
//
// On success, the Entity carries the engine statistics and timing. If
// the plan captures the transfer, the Entity also carries the response
// header, when the plan includes it, and the body.
//
// Exec returns an error wrapping ErrInvalidArgument if ch is nil or
// maxRetries is negative, and the engine's error if the plan's options
// cannot be attached to the channel.
func (r *Runner) Exec(ch *Channel, maxRetries int, throwOnFinalFailure bool) (*result.Entity, error) {
	if ch == nil {
		return nil, invalidArgument("nil channel")
	}
	if maxRetries < 0 {
		return nil, invalidArgument("negative retry count %d", maxRetries)
	}

	p := ch.plan
	o := p.Options()
	// Attempt timeouts come from the timeout policy.
	o.Timeout = 0
	if err := ch.attach(o); err != nil {
		return nil, err
	}

	log := r.logger().With().Str("channel_id", ch.id).Str("url", ch.URL()).Logger()
	timeoutPolicy := r.timeoutPolicy()
	retryPolicy := r.retryPolicy()
	handlers := r.Handlers

	e := request.Execution{
		ID:   ch.id,
		Plan: p,
	}
	handlers.run(BeforeExecutionStart, &e)
	e.Start = time.Now()

	var captured, executed bool
	counter := maxRetries + 1
RetryLoop:
	for counter > 0 {
		counter--
		captured = r.attempt(ch, &e, timeoutPolicy)
		executed = true
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, &e)
		}
		handlers.run(AfterAttempt, &e)
		log.Debug().
			Int("attempt", e.Attempt).
			Stringer("error_kind", e.Kind).
			Dur("timeout", e.AttemptTimeout).
			Msg("attempt done")

		if !e.Err() || p.Context().Err() != nil {
			break
		}
		if counter == 0 || !retryPolicy.Decide(&e) {
			break
		}

		wait := retryPolicy.Wait(&e)
		handlers.run(BeforeRetryWait, &e)
		log.Debug().
			Int("attempt", e.Attempt).
			Stringer("error_kind", e.Kind).
			Dur("wait", wait).
			Int("retries_left", counter).
			Msg("retrying")
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.Context().Done():
			timer.Stop()
			err := p.Context().Err()
			e.Kind = errkind.Classify(err)
			e.Message = err.Error()
			e.Content = nil
			captured = false
			break RetryLoop
		}
		e.Attempt++
	}

	if !executed {
		return nil, fmt.Errorf("%w: %s", ErrNotExecuted, ch.id)
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, &e)

	ent := newEntity(ch, &e, captured, o.IncludeHeader)
	if !ent.Success {
		log.Debug().
			Int("attempts", e.Attempt+1).
			Stringer("error_kind", ent.ErrorKind).
			Str("error", ent.ErrorMessage).
			Msg("execution failed")
		if throwOnFinalFailure {
			return ent, &TransferError{Kind: ent.ErrorKind, Message: ent.ErrorMessage, Entity: ent}
		}
	}
	return ent, nil
}

func (r *Runner) attempt(ch *Channel, e *request.Execution, timeoutPolicy timeout.Policy) bool {
	// The policy sees the outcome of the previous attempt.
	e.AttemptTimeout = timeoutPolicy.Timeout(e)
	e.Kind, e.Message = errkind.OK, ""
	e.Content, e.Info = nil, nil

	ctx := e.Plan.Context()
	if e.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.AttemptTimeout)
		defer cancel()
	}
	r.Handlers.run(BeforeAttempt, e)

	err := ch.handle.PerformContext(ctx)
	ch.executed = true
	e.Info = ch.handle.Info()
	if err != nil {
		e.Kind = errkind.Classify(err)
		e.Message = err.Error()
		return false
	}
	content, captured := ch.handle.Content()
	e.Content = content
	return captured
}

// newEntity builds the result of an execution of ch whose last attempt
// is described by e.
func newEntity(ch *Channel, e *request.Execution, captured, includeHeader bool) *result.Entity {
	ent := &result.Entity{
		ID:  ch.id,
		URL: finalURL(ch, e.Info),
	}
	if !e.Err() && !captured {
		// Streamed to the plan's output.
		ent.Info = e.Info
		ent.Timing = result.TimingFrom(e.Info)
		result.Succeed(ent)
		return ent
	}
	result.Assemble(ent, e.Content, captured, includeHeader, e.Kind, e.Message, e.Info)
	return ent
}

func finalURL(ch *Channel, info engine.Info) string {
	if u, ok := info.String(engine.InfoURL); ok && u != "" {
		return u
	}
	return ch.URL()
}

func (r *Runner) logger() *zerolog.Logger {
	if r.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return r.Logger
}

func (r *Runner) timeoutPolicy() timeout.Policy {
	if r.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return r.TimeoutPolicy
}

func (r *Runner) retryPolicy() retry.Policy {
	if r.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return r.RetryPolicy
}
