// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gogama/xfer/errkind"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

const defaultConnectTimeout = 30 * time.Second

// newTransport builds the transport implementing the connection-level
// options: TLS, proxy, connect timeout and protocol version.
func newTransport(o *Options) (*http.Transport, error) {
	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	tlsConfig, err := newTLSConfig(o)
	if err != nil {
		return nil, err
	}

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   connectTimeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// The handle decodes content itself.
		DisableCompression: true,
	}

	if err = setProxy(t, dialer, o); err != nil {
		return nil, err
	}

	if o.HTTP2 {
		if err = http2.ConfigureTransport(t); err != nil {
			return nil, &Error{Kind: errkind.FailedInit, Message: err.Error(), Err: err}
		}
	} else {
		// A non-nil empty map turns off the transport's built-in HTTP/2.
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	return t, nil
}

func newTLSConfig(o *Options) (*tls.Config, error) {
	c := &tls.Config{
		MinVersion: o.TLSMinVersion,
		MaxVersion: o.TLSMaxVersion,
	}

	if o.CAFile != "" {
		pem, err := os.ReadFile(o.CAFile)
		if err != nil {
			return nil, newError(errkind.SSLCACertBadFile, "error reading CA cert file %s: %v", o.CAFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, newError(errkind.SSLCACertBadFile, "no certificates in CA cert file %s", o.CAFile)
		}
		c.RootCAs = pool
	}

	if o.CertFile != "" || o.KeyFile != "" {
		keyFile := o.KeyFile
		if keyFile == "" {
			keyFile = o.CertFile
		}
		cert, err := tls.LoadX509KeyPair(o.CertFile, keyFile)
		if err != nil {
			return nil, &Error{Kind: errkind.SSLCertProblem, Message: "unable to use client certificate: " + err.Error(), Err: err}
		}
		c.Certificates = []tls.Certificate{cert}
	}

	switch {
	case !o.VerifyPeer:
		c.InsecureSkipVerify = true
	case !o.VerifyHost:
		// Verify the chain but not the name. The standard verifier does
		// both or neither, so the chain check is redone by hand.
		c.InsecureSkipVerify = true
		roots := c.RootCAs
		c.VerifyConnection = func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return newError(errkind.SSLCACert, "server presented no certificate")
			}
			intermediates := x509.NewCertPool()
			for _, cert := range cs.PeerCertificates[1:] {
				intermediates.AddCert(cert)
			}
			_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{
				Roots:         roots,
				Intermediates: intermediates,
			})
			return err
		}
	}

	return c, nil
}

func setProxy(t *http.Transport, dialer *net.Dialer, o *Options) error {
	if o.Proxy == "" {
		return nil
	}
	u, err := url.Parse(o.Proxy)
	if err != nil || u.Host == "" {
		return newError(errkind.URLMalformat, "malformed proxy URL: %s", o.Proxy)
	}
	if o.ProxyUser != "" {
		u.User = url.UserPassword(o.ProxyUser, o.ProxyPassword)
	}

	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		d, err := proxy.SOCKS5("tcp", u.Host, auth, dialer)
		if err != nil {
			return &Error{Kind: errkind.CouldntResolveProxy, Message: err.Error(), Err: err}
		}
		t.Proxy = nil
		if cd, ok := d.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	default:
		return newError(errkind.UnsupportedProtocol, "unsupported proxy scheme %q", u.Scheme)
	}
	return nil
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
