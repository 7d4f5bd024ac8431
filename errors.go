// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"errors"
	"fmt"

	"github.com/gogama/xfer/errkind"
	"github.com/gogama/xfer/result"
)

var (
	// ErrInvalidArgument is returned, wrapped, for configuration errors
	// detected before any transfer starts: a nil or unidentified
	// channel, a negative retry budget, or a Scheduler with no channels.
	ErrInvalidArgument = errors.New("xfer: invalid argument")

	// ErrDuplicateKey is returned, wrapped, when a channel is added to a
	// Scheduler that already holds a channel with the same ID.
	ErrDuplicateKey = errors.New("xfer: duplicate key")

	// ErrBatchStart is returned, wrapped, when a Scheduler's multiplexer
	// reports nothing running and a non-OK code after the first perform
	// steps.
	ErrBatchStart = errors.New("xfer: batch failed to start")

	// ErrNotExecuted is returned, wrapped, if a Runner finishes without
	// having made a single attempt.
	ErrNotExecuted = errors.New("xfer: channel not executed")

	// ErrTransfer is the cause of every *TransferError.
	ErrTransfer = errors.New("xfer: transfer failed")
)

// A TransferError is returned by Runner.Exec when the final attempt
// failed and the caller asked for failures to be returned as errors.
// The failed result is available in Entity.
type TransferError struct {
	Kind    errkind.Kind
	Message string
	Entity  *result.Entity
}

func (e *TransferError) Error() string {
	if e.Entity != nil && e.Entity.URL != "" {
		return fmt.Sprintf("xfer: %s: %s (%s)", e.Entity.URL, e.Message, e.Kind)
	}
	return fmt.Sprintf("xfer: %s (%s)", e.Message, e.Kind)
}

// Unwrap returns ErrTransfer.
func (e *TransferError) Unwrap() error {
	return ErrTransfer
}

// ErrorKind returns the error kind of the failed transfer.
func (e *TransferError) ErrorKind() errkind.Kind {
	return e.Kind
}

func invalidArgument(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, a...)...)
}
