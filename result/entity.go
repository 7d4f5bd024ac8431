// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package result

import (
	"bytes"

	"github.com/gogama/xfer/engine"
	"github.com/gogama/xfer/errkind"
)

// An Entity is the outcome of one channel execution.
//
// Exactly one of two states holds: Success is true, ErrorKind is
// errkind.OK and ErrorMessage is empty; or Success is false, ErrorKind
// is something else and ErrorMessage is non-empty. Use Succeed and Fail
// to move an Entity into one state or the other.
//
// Header and Body are captured only if the channel captured the
// transfer in memory. A nil Header or Body means absent, which is
// different from present but empty.
type Entity struct {
	ID      string
	URL     string
	Success bool

	Header []byte
	Body   []byte

	ErrorKind    errkind.Kind
	ErrorMessage string

	// Info holds the raw engine statistics of the final attempt.
	Info engine.Info
	// Timing is the phase breakdown derived from Info.
	Timing Timing
}

// Succeed marks e successful.
func Succeed(e *Entity) {
	e.Success = true
	e.ErrorKind = errkind.OK
	e.ErrorMessage = ""
}

// Fail marks e failed with the given kind and message and clears any
// captured header and body. Kind OK is replaced by errkind.Other, and an
// empty message by the name of the kind, so a failed Entity always
// reports a failure kind and a message.
func Fail(e *Entity, kind errkind.Kind, msg string) {
	if kind == errkind.OK {
		kind = errkind.Other
	}
	if msg == "" {
		msg = kind.String()
	}
	e.Success = false
	e.ErrorKind = kind
	e.ErrorMessage = msg
	e.Header = nil
	e.Body = nil
}

// Divide splits a captured transfer into header and body. The header is
// the leading headerSize bytes, with surrounding white space trimmed,
// and the body is the rest. A headerSize outside [0, len(raw)] is
// clamped into it.
//
// If hasHeaderSize is false the transfer did not include a header: the
// header is absent (nil) and the body is all of raw. The body is never
// nil, so an empty body is still present.
func Divide(raw []byte, headerSize int64, hasHeaderSize bool) (header, body []byte) {
	if !hasHeaderSize {
		return nil, present(raw)
	}
	n := headerSize
	if n < 0 {
		n = 0
	} else if n > int64(len(raw)) {
		n = int64(len(raw))
	}
	return present(bytes.TrimSpace(raw[:n])), present(raw[n:])
}

func present(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Assemble fills e from the final state of an engine handle: Info and
// Timing always, and Header and Body when content was captured. The
// header is split off only when includeHeader is set and the engine
// reported a header size. Success is decided by whether content was
// retrievable, so a transfer that was not captured comes out failed.
// Assemble leaves ID and URL alone.
func Assemble(e *Entity, content []byte, captured bool, includeHeader bool, kind errkind.Kind, msg string, info engine.Info) {
	e.Info = info
	e.Timing = TimingFrom(info)
	if !captured {
		Fail(e, kind, msg)
		return
	}
	size, ok := info.Int(engine.InfoHeaderSize)
	e.Header, e.Body = Divide(content, size, ok && includeHeader)
	Succeed(e)
}
