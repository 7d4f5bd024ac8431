// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogama/xfer/errkind"
)

// A MultiCode is a status code returned by a Multi operation.
type MultiCode int

const (
	CallMultiPerform  MultiCode = -1
	MultiOK           MultiCode = 0
	BadHandle         MultiCode = 1
	BadEasyHandle     MultiCode = 2
	OutOfMemory       MultiCode = 3
	InternalError     MultiCode = 4
	BadSocket         MultiCode = 5
	UnknownOption     MultiCode = 6
	AddedAlready      MultiCode = 7
	RecursiveAPICall  MultiCode = 8
	WakeupFailure     MultiCode = 9
	BadFunctionArg    MultiCode = 10
	AbortedByCallback MultiCode = 11
	UnrecoverablePoll MultiCode = 12
)

var multiCodeNames = map[MultiCode]string{
	CallMultiPerform:  "CALL_MULTI_PERFORM",
	MultiOK:           "OK",
	BadHandle:         "BAD_HANDLE",
	BadEasyHandle:     "BAD_EASY_HANDLE",
	OutOfMemory:       "OUT_OF_MEMORY",
	InternalError:     "INTERNAL_ERROR",
	BadSocket:         "BAD_SOCKET",
	UnknownOption:     "UNKNOWN_OPTION",
	AddedAlready:      "ADDED_ALREADY",
	RecursiveAPICall:  "RECURSIVE_API_CALL",
	WakeupFailure:     "WAKEUP_FAILURE",
	BadFunctionArg:    "BAD_FUNCTION_ARGUMENT",
	AbortedByCallback: "ABORTED_BY_CALLBACK",
	UnrecoverablePoll: "UNRECOVERABLE_POLL",
}

func (c MultiCode) String() string {
	if name, ok := multiCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MultiCode(%d)", int(c))
}

// A Message reports a completed transfer. Result is the transfer's
// error kind, errkind.OK on success.
type Message struct {
	Handle *Handle
	Result errkind.Kind
}

type entryState int

const (
	attached entryState = iota
	running
	finished
	reported
)

type entry struct {
	h     *Handle
	state entryState
}

// A Multi drives a set of transfers concurrently. Each attached handle
// runs on its own engine goroutine once Perform starts it; the Multi's
// methods are the caller's single point of control.
//
// The methods of Multi are safe to call from one control goroutine.
// Completion of transfers happens on engine goroutines and is published
// to the control goroutine through Perform and InfoRead.
type Multi struct {
	mu       sync.Mutex
	entries  map[*Handle]*entry
	pending  []*entry
	done     []*entry
	messages []*Message
	notify   chan struct{}
	closed   bool
}

// NewMulti returns an empty Multi.
func NewMulti() *Multi {
	return &Multi{
		entries: make(map[*Handle]*entry),
		notify:  make(chan struct{}, 1),
	}
}

// Add attaches h. The transfer starts on the next call to Perform.
func (m *Multi) Add(h *Handle) MultiCode {
	if h == nil {
		return BadEasyHandle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return BadHandle
	}
	if _, ok := m.entries[h]; ok {
		return AddedAlready
	}
	e := &entry{h: h}
	m.entries[h] = e
	m.pending = append(m.pending, e)
	return MultiOK
}

// Remove detaches h. If h is still running its completion is discarded.
func (m *Multi) Remove(h *Handle) MultiCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return BadHandle
	}
	e, ok := m.entries[h]
	if !ok {
		return BadEasyHandle
	}
	delete(m.entries, h)
	if e.state == attached {
		for i, p := range m.pending {
			if p == e {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				break
			}
		}
	}
	return MultiOK
}

// Perform starts every newly attached transfer, turns completed ones
// into messages for InfoRead, and returns the number of transfers still
// running. Perform never blocks.
func (m *Multi) Perform() (MultiCode, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return BadHandle, 0
	}
	for _, e := range m.pending {
		e.state = running
		go m.run(e)
	}
	m.pending = nil

	for _, e := range m.done {
		if m.entries[e.h] != e {
			continue
		}
		e.state = reported
		m.messages = append(m.messages, &Message{Handle: e.h, Result: e.h.ErrCode()})
	}
	m.done = nil

	n := 0
	for _, e := range m.entries {
		if e.state == running || e.state == finished {
			n++
		}
	}
	return MultiOK, n
}

func (m *Multi) run(e *entry) {
	_ = e.h.Perform()
	m.mu.Lock()
	if !m.closed && m.entries[e.h] == e {
		e.state = finished
		m.done = append(m.done, e)
	}
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Wait blocks until at least one transfer has completed or timeout
// elapses. It returns the number of completed transfers waiting to be
// picked up by Perform, 0 on timeout, or -1 if there is nothing to wait
// for.
func (m *Multi) Wait(timeout time.Duration) int {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		m.mu.Lock()
		closed, n, attached := m.closed, len(m.done), len(m.entries)
		m.mu.Unlock()
		switch {
		case closed || attached == 0:
			return -1
		case n > 0:
			return n
		}
		select {
		case <-m.notify:
		case <-timer.C:
			return 0
		}
	}
}

// InfoRead pops the next completion message. It returns nil when there
// are none, along with the number of messages still queued.
func (m *Multi) InfoRead() (*Message, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil, 0
	}
	msg := m.messages[0]
	m.messages[0] = nil
	m.messages = m.messages[1:]
	return msg, len(m.messages)
}

// Close detaches every handle. Transfers still running finish on their
// own but are never reported. Close is idempotent.
func (m *Multi) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = map[*Handle]*entry{}
	m.pending, m.done, m.messages = nil, nil, nil
}
