// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package result

import (
	"math"
	"time"

	"github.com/gogama/xfer/engine"
)

// A Phase is the time from the start of a transfer to the end of one of
// its phases, at two resolutions.
type Phase struct {
	Seconds      float64 `json:"seconds"`
	Microseconds int64   `json:"microseconds"`
}

// Duration returns the phase as a time.Duration, from the microsecond
// value.
func (p Phase) Duration() time.Duration {
	return time.Duration(p.Microseconds) * time.Microsecond
}

// Timing is the phase breakdown of a transfer.
type Timing struct {
	Total         Phase `json:"total"`
	NameLookup    Phase `json:"name_lookup"`
	Connect       Phase `json:"connect"`
	TLSHandshake  Phase `json:"tls_handshake"`
	PreTransfer   Phase `json:"pre_transfer"`
	StartTransfer Phase `json:"start_transfer"`
	Redirect      Phase `json:"redirect"`
}

// TimingFrom derives the breakdown from engine statistics. A phase
// missing from info is zero. When only one resolution of a phase is
// present, the other is computed from it.
func TimingFrom(info engine.Info) Timing {
	return Timing{
		Total:         phase(info, engine.InfoTotalTime, engine.InfoTotalTimeUS),
		NameLookup:    phase(info, engine.InfoNameLookupTime, engine.InfoNameLookupTimeUS),
		Connect:       phase(info, engine.InfoConnectTime, engine.InfoConnectTimeUS),
		TLSHandshake:  phase(info, engine.InfoAppConnectTime, engine.InfoAppConnectTimeUS),
		PreTransfer:   phase(info, engine.InfoPreTransfer, engine.InfoPreTransferUS),
		StartTransfer: phase(info, engine.InfoStartTransfer, engine.InfoStartTransferUS),
		Redirect:      phase(info, engine.InfoRedirectTime, engine.InfoRedirectTimeUS),
	}
}

func phase(info engine.Info, key, keyUS string) Phase {
	s, hasS := info.Float(key)
	us, hasUS := info.Int(keyUS)
	switch {
	case hasS && !hasUS:
		us = int64(math.Round(s * 1e6))
	case hasUS && !hasS:
		s = float64(us) / 1e6
	}
	return Phase{Seconds: s, Microseconds: us}
}
