// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package result

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gogama/xfer/engine"
	"golang.org/x/net/html/charset"
)

// StatusCode returns the HTTP status of the final response, or 0.
func (e *Entity) StatusCode() int {
	code, _ := e.Info.Int(engine.InfoHTTPCode)
	return int(code)
}

// ContentTypeRaw returns the Content-Type reported by the server,
// parameters included.
func (e *Entity) ContentTypeRaw() (string, bool) {
	ct, ok := e.Info.String(engine.InfoContentType)
	return ct, ok && ct != ""
}

// ContentType returns the media type of the content, without
// parameters, or "" if the server sent none.
func (e *Entity) ContentType() string {
	ct, ok := e.ContentTypeRaw()
	if !ok {
		return ""
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// CharacterSet returns the charset parameter of the Content-Type, or ""
// if there is none.
func (e *Entity) CharacterSet() string {
	ct, ok := e.ContentTypeRaw()
	if !ok {
		return ""
	}
	for _, param := range strings.Split(ct, ";")[1:] {
		k, v, found := strings.Cut(param, "=")
		if found && strings.EqualFold(strings.TrimSpace(k), "charset") {
			return strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return ""
}

// Latency returns the total time of the transfer.
func (e *Entity) Latency() time.Duration {
	return e.Timing.Total.Duration()
}

// RedirectCount returns the number of redirects followed.
func (e *Entity) RedirectCount() int {
	n, _ := e.Info.Int(engine.InfoRedirectCount)
	return int(n)
}

// ContentSize returns the number of body bytes downloaded.
func (e *Entity) ContentSize() int64 {
	n, _ := e.Info.Int(engine.InfoSizeDownload)
	return n
}

// UploadSpeed returns the average upload speed in bytes per second.
func (e *Entity) UploadSpeed() int64 {
	n, _ := e.Info.Int(engine.InfoSpeedUpload)
	return n
}

// DownloadSpeed returns the average download speed in bytes per second.
func (e *Entity) DownloadSpeed() int64 {
	n, _ := e.Info.Int(engine.InfoSpeedDownload)
	return n
}

// HeaderLines returns the non-empty lines of the captured header, or
// nil if there is no header. When redirects were followed the header
// holds one block per response, and so do the lines.
func (e *Entity) HeaderLines() []string {
	if e.Header == nil {
		return nil
	}
	var lines []string
	s := bufio.NewScanner(bytes.NewReader(e.Header))
	for s.Scan() {
		if line := strings.TrimRight(s.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodedBody returns the body converted to UTF-8 according to its
// character set. The character set is taken from the Content-Type, or
// sniffed from the content when the Content-Type has none. A body that
// is absent is an error.
func (e *Entity) DecodedBody() (string, error) {
	if e.Body == nil {
		return "", fmt.Errorf("xfer/result: no body captured for %s", e.ID)
	}
	ct, _ := e.ContentTypeRaw()
	r, err := charset.NewReader(bytes.NewReader(e.Body), ct)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
