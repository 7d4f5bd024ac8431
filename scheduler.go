// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"fmt"
	"time"

	"github.com/gogama/xfer/engine"
	"github.com/gogama/xfer/errkind"
	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/result"
	"github.com/rs/zerolog"
)

const (
	// DefaultWaitTimeout bounds each readiness wait of a Scheduler
	// whose WaitTimeout is zero.
	DefaultWaitTimeout = 3 * time.Second

	// NotFoundID is the result key under which a Scheduler records a
	// completed transfer it cannot match to a registered channel.
	NotFoundID = "not found"

	waitErrorBackoff = 10 * time.Microsecond
)

// A Multiplexer drives many transfers from one control goroutine. The
// method set mirrors engine.Multi, which is the default.
type Multiplexer interface {
	Add(h *engine.Handle) engine.MultiCode
	Remove(h *engine.Handle) engine.MultiCode
	Perform() (engine.MultiCode, int)
	Wait(timeout time.Duration) int
	InfoRead() (*engine.Message, int)
	Close()
}

// A Scheduler drives a named collection of channels to completion
// concurrently, and returns one result.Entity per channel.
//
// Each channel gets exactly one attempt. Retries are a Runner concern
// and never happen under a Scheduler.
//
// A Scheduler is not safe for concurrent use, and its channels must not
// be changed while Exec is running.
type Scheduler struct {
	// WaitTimeout bounds each readiness wait. If zero,
	// DefaultWaitTimeout is used.
	WaitTimeout time.Duration
	// Handlers receives BeforeExecutionStart for every channel as the
	// batch starts, then AfterAttempt and AfterExecutionEnd as each
	// channel completes.
	Handlers *HandlerGroup
	// Logger receives debug records for the batch. If Logger is nil,
	// nothing is logged.
	Logger *zerolog.Logger
	// Multiplexer drives the transfers. If nil, an engine.Multi is
	// created on first use.
	Multiplexer Multiplexer

	channels map[string]*registration
	order    []string
}

type registration struct {
	ch   *Channel
	url  string
	exec *request.Execution
}

// NewScheduler returns a Scheduler with channels registered in order.
// If a channel cannot be added, the error names its index and ID.
func NewScheduler(channels ...*Channel) (*Scheduler, error) {
	s := &Scheduler{}
	for i, ch := range channels {
		if err := s.AddChannel(ch); err != nil {
			var id string
			if ch != nil {
				id = ch.id
			}
			return nil, fmt.Errorf("xfer: channel %d (%q): %w", i, id, err)
		}
	}
	return s, nil
}

// AddChannel registers ch. Registration switches the channel's plan to
// capture the transfer in memory with the response header included,
// whatever it was set to before.
//
// AddChannel returns an error wrapping ErrInvalidArgument if ch is nil
// or has an empty ID, and one wrapping ErrDuplicateKey if a channel
// with the same ID is already registered. The existing registration is
// left untouched.
func (s *Scheduler) AddChannel(ch *Channel) error {
	if ch == nil {
		return invalidArgument("nil channel")
	}
	if ch.id == "" {
		return invalidArgument("empty channel ID")
	}
	if _, ok := s.channels[ch.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, ch.id)
	}
	if s.channels == nil {
		s.channels = make(map[string]*registration)
	}
	ch.plan.ReturnTransfer = true
	ch.plan.IncludeHeader = true
	s.channels[ch.id] = &registration{ch: ch, url: ch.URL()}
	s.order = append(s.order, ch.id)
	return nil
}

// Channel returns the registered channel with the given ID.
func (s *Scheduler) Channel(id string) (*Channel, bool) {
	reg, ok := s.channels[id]
	if !ok {
		return nil, false
	}
	return reg.ch, true
}

// RemoveChannel unregisters the channel with the given ID, reporting
// whether it was registered. The channel itself is not closed.
func (s *Scheduler) RemoveChannel(id string) bool {
	if _, ok := s.channels[id]; !ok {
		return false
	}
	delete(s.channels, id)
	for i := range s.order {
		if s.order[i] == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// ChannelIDs returns the IDs of the registered channels in registration
// order.
func (s *Scheduler) ChannelIDs() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of registered channels.
func (s *Scheduler) Len() int {
	return len(s.order)
}

// Exec performs every registered channel once, concurrently, and
// returns the results keyed by channel ID.
//
// A transfer that fails is reported in its channel's Entity rather than
// as an error. Exec returns an error wrapping ErrInvalidArgument if no
// channels are registered, and one wrapping ErrBatchStart if the batch
// could not start at all.
//
// Exec runs until every transfer has completed. It has no overall
// deadline; bound individual transfers with the plans' Timeout.
func (s *Scheduler) Exec() (map[string]*result.Entity, error) {
	if len(s.order) == 0 {
		return nil, invalidArgument("no channels registered")
	}

	log := s.logger()
	mux := s.mux()
	byHandle := make(map[*engine.Handle]*registration, len(s.order))
	defer func() {
		for h, reg := range byHandle {
			mux.Remove(h)
			s.end(reg.exec)
		}
	}()

	for _, id := range s.order {
		reg := s.channels[id]
		if err := reg.ch.attach(reg.ch.plan.Options()); err != nil {
			return nil, fmt.Errorf("xfer: channel %q: %w", id, err)
		}
	}
	for _, id := range s.order {
		reg := s.channels[id]
		reg.exec = &request.Execution{ID: id, Plan: reg.ch.plan}
		s.Handlers.run(BeforeExecutionStart, reg.exec)
		reg.exec.Start = time.Now()
		if code := mux.Add(reg.ch.handle); code != engine.MultiOK {
			s.end(reg.exec)
			return nil, fmt.Errorf("%w: attaching channel %q: %s", ErrBatchStart, id, code)
		}
		byHandle[reg.ch.handle] = reg
	}

	code, running := perform(mux)
	if running == 0 && code != engine.MultiOK {
		return nil, fmt.Errorf("%w: %s", ErrBatchStart, code)
	}
	log.Debug().Int("channels", len(byHandle)).Int("running", running).Msg("batch started")

	results := make(map[string]*result.Entity, len(byHandle))
	timeout := s.waitTimeout()
	for running > 0 {
		n := mux.Wait(timeout)
		switch {
		case n < 0:
			log.Debug().Int("running", running).Msg("wait failed")
			time.Sleep(waitErrorBackoff)
			_, running = perform(mux)
			continue
		case n == 0:
			continue
		}
		_, running = perform(mux)
		s.drain(mux, byHandle, results)
	}
	s.drain(mux, byHandle, results)

	log.Debug().Int("results", len(results)).Msg("batch done")
	return results, nil
}

// Close releases the Scheduler's multiplexer. Registered channels are
// not closed. The Scheduler may be executed again after Close.
func (s *Scheduler) Close() {
	if s.Multiplexer != nil {
		s.Multiplexer.Close()
		s.Multiplexer = nil
	}
}

func perform(mux Multiplexer) (engine.MultiCode, int) {
	code, running := mux.Perform()
	for code == engine.CallMultiPerform {
		code, running = mux.Perform()
	}
	return code, running
}

// drain records a result for every completion queued in mux.
func (s *Scheduler) drain(mux Multiplexer, byHandle map[*engine.Handle]*registration, results map[string]*result.Entity) {
	for {
		msg, _ := mux.InfoRead()
		if msg == nil {
			return
		}
		h := msg.Handle
		mux.Remove(h)

		reg, ok := byHandle[h]
		if !ok {
			ent := &result.Entity{ID: NotFoundID}
			if h != nil {
				ent.URL = h.URL()
				content, captured := h.Content()
				result.Assemble(ent, content, captured, true, h.ErrCode(), h.ErrMessage(), h.Info())
			} else {
				result.Fail(ent, errkind.Other, "completion without handle")
			}
			results[NotFoundID] = ent
			s.logger().Warn().Str("url", ent.URL).Msg("completed transfer matches no channel")
			continue
		}
		delete(byHandle, h)

		content, captured := h.Content()
		e := reg.exec
		e.Kind, e.Message = h.ErrCode(), h.ErrMessage()
		e.Content, e.Info = content, h.Info()
		if e.Timeout() {
			e.AttemptTimeouts++
		}
		reg.ch.executed = true
		s.Handlers.run(AfterAttempt, e)

		ent := &result.Entity{ID: reg.ch.id, URL: reg.url}
		result.Assemble(ent, content, captured, true, e.Kind, e.Message, e.Info)
		results[ent.ID] = ent

		s.end(e)
		s.logger().Debug().
			Str("channel_id", ent.ID).
			Str("url", ent.URL).
			Stringer("error_kind", ent.ErrorKind).
			Msg("channel done")
	}
}

// end closes out an execution. Every execution that saw
// BeforeExecutionStart sees AfterExecutionEnd, even if the batch fails.
func (s *Scheduler) end(e *request.Execution) {
	e.End = time.Now()
	s.Handlers.run(AfterExecutionEnd, e)
}

func (s *Scheduler) mux() Multiplexer {
	if s.Multiplexer == nil {
		s.Multiplexer = engine.NewMulti()
	}
	return s.Multiplexer
}

func (s *Scheduler) waitTimeout() time.Duration {
	if s.WaitTimeout <= 0 {
		return DefaultWaitTimeout
	}
	return s.WaitTimeout
}

func (s *Scheduler) logger() *zerolog.Logger {
	if s.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Logger
}
