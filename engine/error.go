// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"

	"github.com/gogama/xfer/errkind"
)

// An Error is a failed transfer or a rejected configuration. Kind is
// the classified cause and Message is the human-readable text the
// engine reports for it.
type Error struct {
	Kind    errkind.Kind
	Message string
	// Err is the underlying Go error, if any.
	Err error
}

func newError(kind errkind.Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func wrapError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: errkind.Classify(err), Message: err.Error(), Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind returns the error kind. It lets errkind.Classify recognize
// an engine error wrapped inside another error.
func (e *Error) ErrorKind() errkind.Kind {
	return e.Kind
}
