// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package engine is the transfer engine: it performs the network side of an
HTTP transfer and reports the outcome as raw bytes, an error kind, and a
table of post-transfer statistics.

A Handle is one transfer. Create it with New, set its Options with
Configure, and run it with Perform:

	h, err := engine.New("https://example.com")
	...
	err = h.Configure(engine.Options{ReturnTransfer: true, IncludeHeader: true})
	...
	err = h.Perform()
	raw, ok := h.Content()
	code := h.Info().Int(engine.InfoHTTPCode)

A Multi drives many handles at once. Handles are attached with Add and
make progress on engine-owned goroutines; the caller owns a single
control loop built from Perform, Wait and InfoRead:

	m := engine.NewMulti()
	m.Add(h1)
	m.Add(h2)
	code, running := m.Perform()
	for running > 0 {
		if m.Wait(3*time.Second) > 0 {
			code, running = m.Perform()
			for msg, _ := m.InfoRead(); msg != nil; msg, _ = m.InfoRead() {
				...
				m.Remove(msg.Handle)
			}
		}
	}

The engine speaks HTTP/1.1 and, when Options.HTTP2 is set, HTTP/2 by way
of golang.org/x/net/http2. Proxies may be HTTP, HTTPS or SOCKS5.
*/
package engine
