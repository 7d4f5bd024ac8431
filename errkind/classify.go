// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package errkind

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"golang.org/x/net/http2"
)

// Classify returns the Kind of a Go transport error. A nil error
// produces OK, and an error with no recognizable cause produces Other.
//
// Classify looks at wrapped cause errors contained within err, not just
// err itself. If any cause already carries a Kind (it has a method
// ErrorKind() Kind), that Kind wins. Timeouts are checked before any other
// category, so a DNS lookup that timed out is OperationTimedout rather
// than CouldntResolveHost.
func Classify(err error) Kind {
	if err == nil {
		return OK
	}

	var hasKind hasKind
	if errors.As(err, &hasKind) {
		return hasKind.ErrorKind()
	}

	if errors.Is(err, context.Canceled) {
		return AbortedByCallback
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OperationTimedout
	}
	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return OperationTimedout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if viaProxy(err) {
			return CouldntResolveProxy
		}
		return CouldntResolveHost
	}

	if k := classifyTLS(err); k != OK {
		return k
	}

	if k := classifyHTTP2(err); k != OK {
		return k
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return CouldntConnect
		case syscall.ECONNRESET:
			return RecvError
		case syscall.EPIPE:
			return SendError
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial", "proxyconnect":
			return CouldntConnect
		case "read":
			return RecvError
		case "write":
			return SendError
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return PartialFile
	}
	if errors.Is(err, io.EOF) {
		return GotNothing
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "unsupported protocol scheme"):
		return UnsupportedProtocol
	case strings.Contains(msg, "tls: "):
		return SSLConnectError
	}

	return Other
}

func classifyTLS(err error) Kind {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return SSLCACert
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return SSLCACert
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return SSLCACert
	}
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		return SSLCACert
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return SSLConnectError
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return SSLConnectError
	}
	return OK
}

func classifyHTTP2(err error) Kind {
	var streamErr http2.StreamError
	if errors.As(err, &streamErr) {
		return HTTP2Stream
	}
	var connErr http2.ConnectionError
	if errors.As(err, &connErr) {
		return HTTP2
	}
	var goAway http2.GoAwayError
	if errors.As(err, &goAway) {
		return HTTP2
	}
	return OK
}

func viaProxy(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "proxyconnect"
}

type hasKind interface {
	ErrorKind() Kind
}

type hasTimeout interface {
	Timeout() bool
}
