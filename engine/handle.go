// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gogama/xfer/errkind"
	cookiejar "github.com/juju/persistent-cookiejar"
	"golang.org/x/net/publicsuffix"
)

// A Handle is one transfer. The zero value is not usable; create handles
// with New.
//
// A Handle may be performed any number of times. Each Perform replaces
// the content, error and Info of the previous one. A Handle is not safe
// for concurrent use, and must not be touched by its owner while a Multi
// is driving it.
type Handle struct {
	url        string
	opts       Options
	configured bool
	transport  *http.Transport
	jar        http.CookieJar
	closed     bool

	content  []byte
	captured bool
	kind     errkind.Kind
	message  string
	info     Info
}

// New creates a handle for rawURL. An empty rawURL is allowed; the URL
// must then be set with Options.URL before the handle is performed.
func New(rawURL string) (*Handle, error) {
	if rawURL != "" {
		if _, err := url.Parse(rawURL); err != nil {
			return nil, &Error{Kind: errkind.URLMalformat, Message: err.Error(), Err: err}
		}
	}
	return &Handle{url: rawURL}, nil
}

// URL returns the URL the handle was created with.
func (h *Handle) URL() string {
	return h.url
}

// Configure replaces the handle's options. Connection-level options are
// checked immediately, so a bad CA file or proxy URL is reported here
// rather than by Perform.
func (h *Handle) Configure(o Options) error {
	if h.closed {
		return newError(errkind.BadFunctionArgument, "handle is closed")
	}
	if o.URL == "" {
		o.URL = h.url
	}
	o.Header = o.Header.Clone()
	t, err := newTransport(&o)
	if err != nil {
		return err
	}
	if h.transport != nil {
		h.transport.CloseIdleConnections()
	}
	if o.Cookies && h.jar == nil {
		// A jar that is never persisted cannot fail to load.
		h.jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List, NoPersist: true})
	}
	h.opts = o
	h.transport = t
	h.configured = true
	return nil
}

// Perform runs the transfer with a background context.
func (h *Handle) Perform() error {
	return h.PerformContext(context.Background())
}

// PerformContext runs the transfer and blocks until it completes. It
// returns nil on success and an *Error otherwise. Either way, ErrCode,
// ErrMessage and Info describe the outcome afterward.
//
// If Options.CookieFile is set, the cookie file is read before the
// transfer and the cookies the transfer ends with are merged back into
// it afterward, whether or not the transfer succeeded.
func (h *Handle) PerformContext(ctx context.Context) error {
	if h.closed {
		return newError(errkind.BadFunctionArgument, "handle is closed")
	}
	if !h.configured {
		if err := h.Configure(Options{}); err != nil {
			return h.fail(err, nil)
		}
	}

	h.content, h.captured = nil, false
	h.kind, h.message = errkind.OK, ""
	h.info = Info{}

	name := h.opts.CookieFile
	if name == "" {
		return h.transfer(ctx, h.jar)
	}
	jar, err := cookiejar.New(&cookiejar.Options{Filename: name, PublicSuffixList: publicsuffix.List})
	if err != nil {
		return h.fail(&Error{Kind: errkind.FileCouldntReadFile, Message: "Couldn't read cookie file " + name + ": " + err.Error(), Err: err}, nil)
	}
	err = h.transfer(ctx, jar)
	if serr := jar.Save(); serr != nil && err == nil {
		err = h.fail(&Error{Kind: errkind.WriteError, Message: "Failed saving cookies to " + name + ": " + serr.Error(), Err: serr}, nil)
	}
	return err
}

func (h *Handle) transfer(ctx context.Context, jar http.CookieJar) error {
	o := &h.opts
	u, err := parseTarget(o.URL)
	if err != nil {
		return h.fail(err, nil)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	t := newTimer(time.Now())
	ctx = httptrace.WithClientTrace(ctx, t.clientTrace())

	req, err := h.newRequest(ctx, u)
	if err != nil {
		return h.fail(err, t)
	}

	var headers bytes.Buffer
	client := &http.Client{
		Transport: h.transport,
		Jar:       jar,
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			if !o.FollowLocation {
				return http.ErrUseLastResponse
			}
			if o.MaxRedirects >= 0 && len(via) > o.MaxRedirects {
				return newError(errkind.TooManyRedirects, "Maximum (%d) redirects followed", o.MaxRedirects)
			}
			writeHeaderBlock(&headers, next.Response)
			t.redirect(time.Now())
			if o.AutoReferer {
				next.Header.Set("Referer", via[len(via)-1].URL.String())
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil {
			h.recordResponse(resp, headers.Len())
		}
		return h.fail(unwrapURLError(err), t)
	}
	defer resp.Body.Close()

	writeHeaderBlock(&headers, resp)
	h.recordResponse(resp, headers.Len())
	h.info[InfoSizeUpload] = int64(len(o.Body))

	if o.FailOnError && resp.StatusCode >= 400 {
		return h.fail(newError(errkind.HTTPReturnedError, "The requested URL returned error: %d", resp.StatusCode), t)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return h.fail(err, t)
	}

	var n int64
	if o.ReturnTransfer {
		var buf bytes.Buffer
		if o.IncludeHeader {
			buf.Write(headers.Bytes())
		}
		n, err = io.Copy(&buf, &writeGuard{r: body})
		h.content = buf.Bytes()
	} else {
		out := o.Output
		if out == nil {
			out = os.Stdout
		}
		n, err = io.Copy(out, &writeGuard{r: body})
	}
	h.info[InfoSizeDownload] = n
	if err != nil {
		h.content = nil
		return h.fail(readError(err), t)
	}

	h.captured = o.ReturnTransfer
	h.finish(t)
	return nil
}

func (h *Handle) newRequest(ctx context.Context, u *url.URL) (*http.Request, error) {
	o := &h.opts
	var body io.Reader
	if len(o.Body) > 0 {
		body = bytes.NewReader(o.Body)
	}
	req, err := http.NewRequestWithContext(ctx, o.method(), u.String(), body)
	if err != nil {
		return nil, &Error{Kind: errkind.BadFunctionArgument, Message: err.Error(), Err: err}
	}
	for k, vs := range o.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if o.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	if enc := acceptEncoding(o.AcceptEncoding); enc != "" {
		req.Header.Set("Accept-Encoding", enc)
	}
	return req, nil
}

func (h *Handle) recordResponse(resp *http.Response, headerSize int) {
	h.info[InfoHTTPCode] = int64(resp.StatusCode)
	h.info[InfoHeaderSize] = int64(headerSize)
	h.info[InfoHTTPVersion] = resp.Proto
	if resp.Request != nil && resp.Request.URL != nil {
		h.info[InfoURL] = resp.Request.URL.String()
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		h.info[InfoContentType] = ct
	}
	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode/100 == 3 {
		h.info[InfoRedirectURL] = loc
	}
}

func (h *Handle) finish(t *timer) {
	if !h.info.Has(InfoURL) {
		h.info[InfoURL] = h.opts.URL
	}
	if !h.info.Has(InfoHTTPCode) {
		h.info[InfoHTTPCode] = int64(0)
	}
	if !h.info.Has(InfoHeaderSize) {
		h.info[InfoHeaderSize] = int64(0)
	}
	if t == nil {
		return
	}
	t.fill(h.info, time.Now())
	total, _ := h.info.Float(InfoTotalTime)
	if total > 0 {
		up, _ := h.info.Float(InfoSizeUpload)
		down, _ := h.info.Float(InfoSizeDownload)
		h.info[InfoSpeedUpload] = up / total
		h.info[InfoSpeedDownload] = down / total
	} else {
		h.info[InfoSpeedUpload] = float64(0)
		h.info[InfoSpeedDownload] = float64(0)
	}
}

func (h *Handle) fail(err error, t *timer) error {
	e := wrapError(err)
	h.content, h.captured = nil, false
	h.kind, h.message = e.Kind, e.Message
	if h.info == nil {
		h.info = Info{}
	}
	h.finish(t)
	return e
}

// Content returns the buffered result of the last transfer. The second
// return value is false if the transfer failed or ReturnTransfer was not
// set.
func (h *Handle) Content() ([]byte, bool) {
	return h.content, h.captured
}

// ErrCode returns the error kind of the last transfer, or errkind.OK.
func (h *Handle) ErrCode() errkind.Kind {
	return h.kind
}

// ErrMessage returns the error text of the last transfer, or "".
func (h *Handle) ErrMessage() string {
	return h.message
}

// Info returns the statistics of the last transfer. Before the first
// transfer the Info is empty.
func (h *Handle) Info() Info {
	return h.info
}

// Close releases the handle's idle connections. A closed handle can no
// longer be configured or performed. Close is idempotent.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true
	if h.transport != nil {
		h.transport.CloseIdleConnections()
	}
}

func parseTarget(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, newError(errkind.URLMalformat, "No URL set")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Kind: errkind.URLMalformat, Message: err.Error(), Err: err}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, newError(errkind.URLMalformat, "URL has no scheme: %s", rawURL)
	default:
		return nil, newError(errkind.UnsupportedProtocol, "Protocol %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return nil, newError(errkind.URLMalformat, "URL has no host: %s", rawURL)
	}
	return u, nil
}

// writeHeaderBlock appends the status line and header fields of resp in
// wire form, terminated by an empty line.
func writeHeaderBlock(buf *bytes.Buffer, resp *http.Response) {
	if resp == nil {
		return
	}
	fmt.Fprintf(buf, "%s %s\r\n", resp.Proto, resp.Status)
	_ = resp.Header.Write(buf)
	buf.WriteString("\r\n")
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var e *Error
		if errors.As(urlErr.Err, &e) {
			return e
		}
		return &Error{Kind: errkind.Classify(err), Message: urlErr.Err.Error(), Err: err}
	}
	return err
}

var supportedEncodings = "gzip, deflate"

func acceptEncoding(s string) string {
	if s == "*" {
		return supportedEncodings
	}
	return s
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		if resp.Request != nil && resp.Request.Header.Get("Accept-Encoding") == "" {
			return resp.Body, nil
		}
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &Error{Kind: errkind.BadContentEncoding, Message: "Error while processing content unencoding: " + err.Error(), Err: err}
		}
		return r, nil
	case "deflate":
		if resp.Request != nil && resp.Request.Header.Get("Accept-Encoding") == "" {
			return resp.Body, nil
		}
		r, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, &Error{Kind: errkind.BadContentEncoding, Message: "Error while processing content unencoding: " + err.Error(), Err: err}
		}
		return r, nil
	default:
		return resp.Body, nil
	}
}

// writeGuard marks read errors so a failed write to Output can be told
// apart from a failed read of the response body.
type writeGuard struct {
	r io.Reader
}

type bodyReadError struct {
	err error
}

func (e bodyReadError) Error() string { return e.err.Error() }
func (e bodyReadError) Unwrap() error { return e.err }

func (g *writeGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	if err != nil && err != io.EOF {
		err = bodyReadError{err}
	}
	return n, err
}

func readError(err error) error {
	var b bodyReadError
	if !errors.As(err, &b) {
		return &Error{Kind: errkind.WriteError, Message: "Failed writing body: " + err.Error(), Err: err}
	}
	return receiveError(b.err)
}

func receiveError(err error) error {
	k := errkind.Classify(err)
	switch k {
	case errkind.Other, errkind.GotNothing:
		k = errkind.RecvError
	}
	return &Error{Kind: k, Message: "Failure when receiving data from the peer: " + err.Error(), Err: err}
}
