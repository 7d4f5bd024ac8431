// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"io"
	"net/http"
	"time"
)

// Options is the complete configuration of one transfer. The zero value
// is a GET of the handle's initial URL, streamed to os.Stdout, with no
// redirect following and no certificate verification.
type Options struct {
	// URL is the URL to transfer. If empty, the URL given to New is
	// used.
	URL string
	// Method is the request method. An empty string means GET.
	Method string
	// Header holds the request header fields to send.
	Header http.Header
	// Body is the request body. A nil or empty body sends no body.
	Body []byte

	// ReturnTransfer buffers the result in memory so it is available
	// from Handle.Content. If false, the response body is streamed to
	// Output instead.
	ReturnTransfer bool
	// IncludeHeader prepends the response header block of every
	// response received (redirects included) to the buffered result.
	// It has no effect unless ReturnTransfer is set.
	IncludeHeader bool
	// Output receives the response body when ReturnTransfer is false.
	// If nil, os.Stdout is used.
	Output io.Writer

	// FollowLocation follows redirect responses.
	FollowLocation bool
	// MaxRedirects caps the number of redirects followed. A negative
	// value means no limit.
	MaxRedirects int
	// AutoReferer sets the Referer header when following a redirect.
	AutoReferer bool

	// Timeout bounds the whole transfer. Zero means no limit.
	Timeout time.Duration
	// ConnectTimeout bounds connection establishment. Zero means the
	// engine default of 30 seconds.
	ConnectTimeout time.Duration

	// FailOnError treats an HTTP status of 400 or above as a transfer
	// failure of kind HTTPReturnedError.
	FailOnError bool

	// UserAgent sets the User-Agent header, unless Header already has
	// one.
	UserAgent string
	// AcceptEncoding requests compressed content. The result is
	// decoded transparently. Supported encodings are "gzip", "deflate"
	// and "identity"; the empty string sends no Accept-Encoding at all
	// and "*" asks for every supported encoding.
	AcceptEncoding string

	// VerifyPeer verifies the server certificate chain.
	VerifyPeer bool
	// VerifyHost verifies that the server certificate matches the host
	// name. It has no effect unless VerifyPeer is set.
	VerifyHost bool
	// CAFile names a PEM bundle replacing the system roots.
	CAFile string
	// CertFile and KeyFile name a PEM client certificate and key.
	CertFile string
	KeyFile  string
	// TLSMinVersion and TLSMaxVersion bound the negotiated TLS version
	// (tls.VersionTLS12 and so on). Zero leaves the bound at its
	// default.
	TLSMinVersion uint16
	TLSMaxVersion uint16

	// Proxy is the proxy URL. Schemes http, https, socks5 and socks5h
	// are supported. If empty, the proxy environment variables are
	// honored.
	Proxy string
	// ProxyUser and ProxyPassword authenticate with the proxy.
	ProxyUser     string
	ProxyPassword string

	// HTTP2 enables HTTP/2 over TLS.
	HTTP2 bool

	// Cookies keeps a cookie jar on the handle, so cookies received by
	// one transfer are sent on the next one made with the same handle.
	Cookies bool
	// CookieFile names a file that cookies are loaded from before each
	// transfer and saved to after it, so handles can share cookies
	// through the file. It is used instead of the Cookies jar.
	CookieFile string
}

func (o *Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}
