// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"
)

// timer records the phase boundaries of one transfer. Every hop of a
// redirect chain resets the phase marks, so the reported phase times
// describe the final hop, measured from the start of the whole
// transfer.
//
// The httptrace hooks may fire on transport goroutines, so every field
// is guarded by mu.
type timer struct {
	mu         sync.Mutex
	start      time.Time
	hopStart   time.Time
	dnsDone    time.Time
	connDone   time.Time
	tlsDone    time.Time
	gotConn    time.Time
	firstByte  time.Time
	hops       int
	remoteAddr string
}

func newTimer(now time.Time) *timer {
	return &timer{start: now, hopStart: now}
}

// redirect marks the start of a new hop.
func (t *timer) redirect(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hops++
	t.hopStart = now
	t.dnsDone = time.Time{}
	t.connDone = time.Time{}
	t.tlsDone = time.Time{}
	t.gotConn = time.Time{}
	t.firstByte = time.Time{}
}

func (t *timer) clientTrace() *httptrace.ClientTrace {
	mark := func(p *time.Time) {
		t.mu.Lock()
		*p = time.Now()
		t.mu.Unlock()
	}
	return &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) {
			mark(&t.dnsDone)
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				mark(&t.connDone)
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				mark(&t.tlsDone)
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			t.mu.Lock()
			t.gotConn = time.Now()
			if info.Conn != nil {
				t.remoteAddr = info.Conn.RemoteAddr().String()
			}
			t.mu.Unlock()
		},
		GotFirstResponseByte: func() {
			mark(&t.firstByte)
		},
	}
}

// since returns mark-start, or fallback when mark was never set.
func (t *timer) since(mark time.Time, fallback time.Duration) time.Duration {
	if mark.IsZero() {
		return fallback
	}
	return mark.Sub(t.start)
}

// fill writes the timing keys into info. A phase that did not happen on
// the final hop (for example DNS on a reused connection) is reported as
// the end of the phase before it.
func (t *timer) fill(info Info, end time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hop := t.hopStart.Sub(t.start)
	nameLookup := t.since(t.dnsDone, hop)
	connect := t.since(t.connDone, nameLookup)
	var appConnect time.Duration
	if !t.tlsDone.IsZero() {
		appConnect = t.tlsDone.Sub(t.start)
	}
	preTransfer := t.since(t.gotConn, connect)
	startTransfer := t.since(t.firstByte, preTransfer)
	total := end.Sub(t.start)
	var redirect time.Duration
	if t.hops > 0 {
		redirect = hop
	}

	info.setTime(InfoTotalTime, InfoTotalTimeUS, total)
	info.setTime(InfoNameLookupTime, InfoNameLookupTimeUS, nameLookup)
	info.setTime(InfoConnectTime, InfoConnectTimeUS, connect)
	info.setTime(InfoAppConnectTime, InfoAppConnectTimeUS, appConnect)
	info.setTime(InfoPreTransfer, InfoPreTransferUS, preTransfer)
	info.setTime(InfoStartTransfer, InfoStartTransferUS, startTransfer)
	info.setTime(InfoRedirectTime, InfoRedirectTimeUS, redirect)
	info[InfoRedirectCount] = int64(t.hops)
	if t.remoteAddr != "" {
		info[InfoPrimaryIP] = hostOnly(t.remoteAddr)
	}
}
