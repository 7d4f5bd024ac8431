// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"github.com/gogama/xfer/engine"
	"golang.org/x/net/http/httpguts"
)

const (
	nilCtxMsg = "xfer/request: nil context"

	// DefaultMaxRedirects is the redirect cap callers pass to
	// SetFollowLocation when they have no better value.
	DefaultMaxRedirects = 10
)

// A Plan is the complete configuration of one channel's transfer: the
// request itself plus the capture, redirect, timeout, TLS and proxy
// options the transfer engine applies when performing it.
//
// The same Plan is attached to the engine at the start of every
// execution, so changes made between executions take effect on the next
// one.
//
// Like an http.Request, a Plan has a context which bounds the whole
// execution, retries included.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to send.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body sends
	// no body. GET and HEAD plans never send a body.
	Body []byte

	// ReturnTransfer captures the transfer in memory. If false, the
	// response body is streamed to Output and results carry neither
	// header nor body.
	ReturnTransfer bool

	// IncludeHeader includes the response header block in the captured
	// transfer, so results carry a Header as well as a Body.
	IncludeHeader bool

	// Output receives the response body when ReturnTransfer is false.
	// If nil, os.Stdout is used.
	Output io.Writer

	// FollowLocation follows redirects, at most MaxRedirects of them
	// (negative means no limit). AutoReferer sets the Referer header on
	// each redirect.
	FollowLocation bool
	MaxRedirects   int
	AutoReferer    bool

	// Timeout bounds each attempt. Zero means no limit.
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment on each attempt.
	// Zero means the engine default.
	ConnectTimeout time.Duration

	// FailOnError makes HTTP statuses of 400 and above fail the
	// transfer, with error kind HTTP_RETURNED_ERROR.
	FailOnError bool

	// UserAgent is sent as the User-Agent header.
	UserAgent string

	// AcceptEncoding asks for compressed content, decoded
	// transparently. "*" asks for every encoding the engine supports.
	AcceptEncoding string

	// VerifyPeer verifies the server certificate chain, and VerifyHost
	// additionally checks the certificate against the host name.
	VerifyPeer bool
	VerifyHost bool

	// CAFile names a PEM bundle of trusted roots. CertFile and KeyFile
	// name a PEM client certificate and key.
	CAFile   string
	CertFile string
	KeyFile  string

	// TLSMinVersion and TLSMaxVersion bound the TLS version. Zero
	// leaves a bound at its default.
	TLSMinVersion uint16
	TLSMaxVersion uint16

	// Proxy is the proxy URL (http, https, socks5 or socks5h), with
	// optional credentials in ProxyUser and ProxyPassword.
	Proxy         string
	ProxyUser     string
	ProxyPassword string

	// HTTP2 enables HTTP/2 over TLS.
	HTTP2 bool

	// Cookies keeps cookies between executions of the same channel.
	Cookies bool

	// CookieFile persists cookies in the named file. They are read
	// before every attempt and written back after it, so any channel
	// naming the same file sees them.
	CookieFile string

	// ctx allows the entire Plan exec to be cancelled. It should only
	// be modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// Parameter body may be nil (empty body), or anything BodyBytes
// accepts: a string, []byte, url.Values, io.Reader, or io.ReadCloser.
// A reader is read to the end and buffered into a []byte, and closed
// after buffering if it is an io.ReadCloser.
//
// The new plan captures nothing and verifies no certificates; header
// inclusion is on, so enabling ReturnTransfer alone yields both header
// and body.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("xfer/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:           ctx,
		Method:        method,
		URL:           u,
		Header:        make(http.Header),
		Body:          b,
		IncludeHeader: true,
		MaxRedirects:  -1,
	}, nil
}

// Context returns the plan's context. The returned context is always
// non-nil; it defaults to the background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// SetReturnTransfer sets the capture mode. The header inclusion flag is
// only changed when returnTransfer is true, since it means nothing for
// a streamed transfer.
func (p *Plan) SetReturnTransfer(returnTransfer, includeHeader bool) {
	p.ReturnTransfer = returnTransfer
	if returnTransfer {
		p.IncludeHeader = includeHeader
	}
}

// SetFollowLocation turns redirect following on or off. Any negative
// maxRedirects is stored as -1, meaning no limit.
func (p *Plan) SetFollowLocation(follow bool, maxRedirects int, autoReferer bool) {
	p.FollowLocation = follow
	if maxRedirects < 0 {
		maxRedirects = -1
	}
	p.MaxRedirects = maxRedirects
	p.AutoReferer = follow && autoReferer
}

// SetProxy routes the transfer through proxyURL. Empty credentials mean
// none.
func (p *Plan) SetProxy(proxyURL, user, password string) {
	p.Proxy = proxyURL
	p.ProxyUser = user
	p.ProxyPassword = password
}

// SetVerify turns certificate chain and host name verification on or
// off. Host verification is meaningless without peer verification, so
// it is forced off when peer is false.
func (p *Plan) SetVerify(peer, host bool) {
	p.VerifyPeer = peer
	p.VerifyHost = peer && host
}

// SetClientCert sets the client certificate and key files. If keyFile
// is empty the key is read from certFile.
func (p *Plan) SetClientCert(certFile, keyFile string) {
	p.CertFile = certFile
	p.KeyFile = keyFile
}

// SetTLSVersion bounds the negotiated TLS version, for example
// SetTLSVersion(tls.VersionTLS12, 0).
func (p *Plan) SetTLSVersion(min, max uint16) {
	p.TLSMinVersion = min
	p.TLSMaxVersion = max
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
func (p *Plan) AddCookie(c *http.Cookie) {
	s := (&http.Cookie{Name: c.Name, Value: c.Value}).String()
	if p.Header == nil {
		p.Header = make(http.Header)
	}
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func (p *Plan) SetBasicAuth(username, password string) {
	p.setAuthorization("Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password)))
}

// SetBearerToken sets the Authorization header to a bearer token.
func (p *Plan) SetBearerToken(token string) {
	p.setAuthorization("Bearer " + token)
}

func (p *Plan) setAuthorization(value string) {
	if p.Header == nil {
		p.Header = make(http.Header)
	}
	p.Header.Set("Authorization", value)
}

// Options returns the engine options implementing the plan.
func (p *Plan) Options() engine.Options {
	o := engine.Options{
		Method:         p.Method,
		Header:         p.Header,
		ReturnTransfer: p.ReturnTransfer,
		IncludeHeader:  p.ReturnTransfer && p.IncludeHeader,
		Output:         p.Output,
		FollowLocation: p.FollowLocation,
		MaxRedirects:   p.MaxRedirects,
		AutoReferer:    p.AutoReferer,
		Timeout:        p.Timeout,
		ConnectTimeout: p.ConnectTimeout,
		FailOnError:    p.FailOnError,
		UserAgent:      p.UserAgent,
		AcceptEncoding: p.AcceptEncoding,
		VerifyPeer:     p.VerifyPeer,
		VerifyHost:     p.VerifyHost,
		CAFile:         p.CAFile,
		CertFile:       p.CertFile,
		KeyFile:        p.KeyFile,
		TLSMinVersion:  p.TLSMinVersion,
		TLSMaxVersion:  p.TLSMaxVersion,
		Proxy:          p.Proxy,
		ProxyUser:      p.ProxyUser,
		ProxyPassword:  p.ProxyPassword,
		HTTP2:          p.HTTP2,
		Cookies:        p.Cookies,
		CookieFile:     p.CookieFile,
	}
	if p.URL != nil {
		o.URL = p.URL.String()
	}
	switch strings.ToUpper(p.Method) {
	case "", http.MethodGet, http.MethodHead:
	default:
		o.Body = p.Body
	}
	return o
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// hasPort reports whether s, of the form "host", "host:port", or
// "[ipv6::address]:port", includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
