// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"strconv"

	"github.com/gogama/xfer/request"
)

// A HandlerGroup holds one chain of handlers per Event. Install it as
// the Handlers of a Runner or a Scheduler; both fire the chains in
// order on the goroutine that called Exec. The zero value is an empty
// group, and a nil *HandlerGroup fires nothing.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack appends h to the chain for evt. It panics if h is nil or
// evt is not one of Events().
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	g.check(evt, h)
	g.chains[evt] = append(g.chains[evt], h)
}

// PushFront prepends h to the chain for evt, so it runs before every
// handler already in the chain. It panics like PushBack.
func (g *HandlerGroup) PushFront(evt Event, h Handler) {
	g.check(evt, h)
	g.chains[evt] = append([]Handler{h}, g.chains[evt]...)
}

// Len returns the number of handlers chained for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if g == nil || !known(evt) {
		return 0
	}
	return len(g.chains[evt])
}

func (g *HandlerGroup) check(evt Event, h Handler) {
	if h == nil {
		panic("xfer: nil handler")
	}
	if !known(evt) {
		panic("xfer: unknown event " + strconv.Itoa(int(evt)))
	}
}

func known(evt Event) bool {
	return evt >= 0 && int(evt) < numEvents
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	if g == nil || !known(evt) {
		return
	}
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}

// A Handler reacts to one event in a channel execution. It may read
// the Execution and store values on it with SetValue.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}
