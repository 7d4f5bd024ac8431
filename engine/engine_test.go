// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"compress/gzip"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gogama/xfer/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var server *httptest.Server

func TestMain(m *testing.M) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/hops/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hops/"))
		if n > 0 {
			http.Redirect(w, r, "/hops/"+strconv.Itoa(n-1), http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("landed"))
	})
	mux.HandleFunc("/cookie/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "flavor", Value: r.URL.Query().Get("v"), Path: "/", MaxAge: 3600})
	})
	mux.HandleFunc("/cookie/get", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("flavor")
		if err != nil {
			_, _ = w.Write([]byte("none"))
			return
		}
		_, _ = w.Write([]byte(c.Value))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/gzip", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			_, _ = w.Write([]byte("plain"))
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = zw.Write([]byte("squeezed"))
		_ = zw.Close()
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method + " " + r.Header.Get("User-Agent")))
	})
	server = httptest.NewServer(mux)
	code := m.Run()
	server.Close()
	os.Exit(code)
}

func closedPortURL(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr + "/"
}

func perform(t *testing.T, o Options) (*Handle, error) {
	h, err := New(o.URL)
	require.NoError(t, err)
	require.NoError(t, h.Configure(o))
	return h, h.Perform()
}

func TestNew(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		h, err := New("")
		require.NoError(t, err)
		err = h.Perform()
		require.Error(t, err)
		assert.Equal(t, errkind.URLMalformat, h.ErrCode())
	})
	t.Run("malformed", func(t *testing.T) {
		h, err := New("http://[::1")
		assert.Nil(t, h)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errkind.URLMalformat, e.Kind)
	})
}

func TestHandle_Perform(t *testing.T) {
	t.Run("return transfer with header", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/ok", ReturnTransfer: true, IncludeHeader: true})
		require.NoError(t, err)
		raw, ok := h.Content()
		require.True(t, ok)
		assert.True(t, bytes.HasPrefix(raw, []byte("HTTP/1.1 200 OK\r\n")))
		size, ok := h.Info().Int(InfoHeaderSize)
		require.True(t, ok)
		assert.Equal(t, "hello", string(raw[size:]))
		assert.True(t, bytes.HasSuffix(raw[:size], []byte("\r\n\r\n")))
		code, _ := h.Info().Int(InfoHTTPCode)
		assert.Equal(t, int64(200), code)
		ct, _ := h.Info().String(InfoContentType)
		assert.Equal(t, "text/plain; charset=utf-8", ct)
		n, _ := h.Info().Int(InfoSizeDownload)
		assert.Equal(t, int64(5), n)
		assert.Equal(t, errkind.OK, h.ErrCode())
		assert.Equal(t, "", h.ErrMessage())
	})
	t.Run("without header", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/ok", ReturnTransfer: true})
		require.NoError(t, err)
		raw, ok := h.Content()
		require.True(t, ok)
		assert.Equal(t, "hello", string(raw))
		size, _ := h.Info().Int(InfoHeaderSize)
		assert.Greater(t, size, int64(0))
	})
	t.Run("streamed to output", func(t *testing.T) {
		var out bytes.Buffer
		h, err := perform(t, Options{URL: server.URL + "/ok", Output: &out})
		require.NoError(t, err)
		raw, ok := h.Content()
		assert.False(t, ok)
		assert.Nil(t, raw)
		assert.Equal(t, "hello", out.String())
	})
	t.Run("method and user agent", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/echo", Method: http.MethodPut, UserAgent: "xfer-test", ReturnTransfer: true})
		require.NoError(t, err)
		raw, _ := h.Content()
		assert.Equal(t, "PUT xfer-test", string(raw))
	})
	t.Run("unsupported protocol", func(t *testing.T) {
		h, err := perform(t, Options{URL: "gopher://example.com/", ReturnTransfer: true})
		require.Error(t, err)
		assert.Equal(t, errkind.UnsupportedProtocol, h.ErrCode())
		_, ok := h.Content()
		assert.False(t, ok)
		code, _ := h.Info().Int(InfoHTTPCode)
		assert.Equal(t, int64(0), code)
	})
	t.Run("connection refused", func(t *testing.T) {
		h, err := perform(t, Options{URL: closedPortURL(t), ReturnTransfer: true})
		require.Error(t, err)
		assert.Equal(t, errkind.CouldntConnect, h.ErrCode())
		assert.NotEmpty(t, h.ErrMessage())
		assert.True(t, h.Info().Has(InfoTotalTime))
	})
	t.Run("fail on error", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/missing", ReturnTransfer: true, FailOnError: true})
		require.Error(t, err)
		assert.Equal(t, errkind.HTTPReturnedError, h.ErrCode())
		assert.Equal(t, "The requested URL returned error: 404", h.ErrMessage())
		code, _ := h.Info().Int(InfoHTTPCode)
		assert.Equal(t, int64(404), code)
	})
	t.Run("http error without fail on error", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/missing", ReturnTransfer: true})
		require.NoError(t, err)
		code, _ := h.Info().Int(InfoHTTPCode)
		assert.Equal(t, int64(404), code)
	})
	t.Run("timeout", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/slow", ReturnTransfer: true, Timeout: 50 * time.Millisecond})
		require.Error(t, err)
		assert.Equal(t, errkind.OperationTimedout, h.ErrCode())
	})
	t.Run("gzip", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/gzip", ReturnTransfer: true, AcceptEncoding: "*"})
		require.NoError(t, err)
		raw, _ := h.Content()
		assert.Equal(t, "squeezed", string(raw))
	})
	t.Run("no accept encoding", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/gzip", ReturnTransfer: true})
		require.NoError(t, err)
		raw, _ := h.Content()
		assert.Equal(t, "plain", string(raw))
	})
}

func TestHandle_Redirects(t *testing.T) {
	t.Run("not followed", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/redirect", ReturnTransfer: true})
		require.NoError(t, err)
		code, _ := h.Info().Int(InfoHTTPCode)
		assert.Equal(t, int64(302), code)
		loc, _ := h.Info().String(InfoRedirectURL)
		assert.Equal(t, "/ok", loc)
	})
	t.Run("followed", func(t *testing.T) {
		h, err := perform(t, Options{
			URL:            server.URL + "/redirect",
			ReturnTransfer: true,
			IncludeHeader:  true,
			FollowLocation: true,
			MaxRedirects:   10,
		})
		require.NoError(t, err)
		raw, _ := h.Content()
		assert.Equal(t, 2, bytes.Count(raw, []byte("HTTP/1.1 ")))
		size, _ := h.Info().Int(InfoHeaderSize)
		assert.Equal(t, "hello", string(raw[size:]))
		count, _ := h.Info().Int(InfoRedirectCount)
		assert.Equal(t, int64(1), count)
		u, _ := h.Info().String(InfoURL)
		assert.Equal(t, server.URL+"/ok", u)
	})
	t.Run("too many", func(t *testing.T) {
		h, err := perform(t, Options{
			URL:            server.URL + "/loop",
			ReturnTransfer: true,
			FollowLocation: true,
			MaxRedirects:   2,
		})
		require.Error(t, err)
		assert.Equal(t, errkind.TooManyRedirects, h.ErrCode())
		assert.Equal(t, "Maximum (2) redirects followed", h.ErrMessage())
	})
	t.Run("unlimited", func(t *testing.T) {
		h, err := perform(t, Options{
			URL:            server.URL + "/hops/12",
			ReturnTransfer: true,
			FollowLocation: true,
			MaxRedirects:   -1,
		})
		require.NoError(t, err)
		raw, _ := h.Content()
		assert.Equal(t, "landed", string(raw))
		count, _ := h.Info().Int(InfoRedirectCount)
		assert.Equal(t, int64(12), count)
	})
}

func TestHandle_Cookies(t *testing.T) {
	body := func(t *testing.T, h *Handle) string {
		raw, ok := h.Content()
		require.True(t, ok)
		return string(raw)
	}
	t.Run("in memory", func(t *testing.T) {
		h, err := perform(t, Options{URL: server.URL + "/cookie/set?v=rye", ReturnTransfer: true, Cookies: true})
		require.NoError(t, err)
		require.NoError(t, h.Configure(Options{URL: server.URL + "/cookie/get", ReturnTransfer: true, Cookies: true}))
		require.NoError(t, h.Perform())
		assert.Equal(t, "rye", body(t, h))

		other, err := perform(t, Options{URL: server.URL + "/cookie/get", ReturnTransfer: true, Cookies: true})
		require.NoError(t, err)
		assert.Equal(t, "none", body(t, other), "jar is per handle")
	})
	t.Run("file shared between handles", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "cookies")
		_, err := perform(t, Options{URL: server.URL + "/cookie/set?v=oat", ReturnTransfer: true, CookieFile: file})
		require.NoError(t, err)
		assert.FileExists(t, file)

		h, err := perform(t, Options{URL: server.URL + "/cookie/get", ReturnTransfer: true, CookieFile: file})
		require.NoError(t, err)
		assert.Equal(t, "oat", body(t, h))
	})
	t.Run("corrupt file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "cookies")
		require.NoError(t, os.WriteFile(file, []byte("not cookies"), 0600))
		h, err := perform(t, Options{URL: server.URL + "/ok", ReturnTransfer: true, CookieFile: file})
		require.Error(t, err)
		assert.Equal(t, errkind.FileCouldntReadFile, h.ErrCode())
		_, ok := h.Content()
		assert.False(t, ok)
	})
}

func TestHandle_Configure(t *testing.T) {
	h, err := New(server.URL + "/ok")
	require.NoError(t, err)
	t.Run("bad CA file", func(t *testing.T) {
		err := h.Configure(Options{VerifyPeer: true, CAFile: "/does/not/exist.pem"})
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errkind.SSLCACertBadFile, e.Kind)
	})
	t.Run("bad proxy scheme", func(t *testing.T) {
		err := h.Configure(Options{Proxy: "ftp://proxy.example.com:21"})
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errkind.UnsupportedProtocol, e.Kind)
	})
	t.Run("socks5 proxy", func(t *testing.T) {
		assert.NoError(t, h.Configure(Options{Proxy: "socks5://127.0.0.1:1080", ProxyUser: "u", ProxyPassword: "p"}))
	})
	t.Run("http2", func(t *testing.T) {
		assert.NoError(t, h.Configure(Options{HTTP2: true}))
	})
	t.Run("closed", func(t *testing.T) {
		h.Close()
		h.Close()
		assert.Error(t, h.Configure(Options{}))
		assert.Error(t, h.Perform())
	})
}

func TestInfo(t *testing.T) {
	i := Info{"a": int64(3), "b": 1.5, "c": "x", "d": 7}
	n, ok := i.Int("a")
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	n, ok = i.Int("b")
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)
	n, _ = i.Int("d")
	assert.Equal(t, int64(7), n)
	_, ok = i.Int("c")
	assert.False(t, ok)
	f, ok := i.Float("a")
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
	s, ok := i.String("c")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = i.String("missing")
	assert.False(t, ok)
	assert.False(t, Info(nil).Has("a"))
}

func TestMulti(t *testing.T) {
	t.Run("runs all", func(t *testing.T) {
		m := NewMulti()
		defer m.Close()
		paths := []string{"/ok", "/missing", "/redirect"}
		handles := map[*Handle]string{}
		for _, p := range paths {
			h, err := New(server.URL + p)
			require.NoError(t, err)
			require.NoError(t, h.Configure(Options{ReturnTransfer: true}))
			require.Equal(t, MultiOK, m.Add(h))
			handles[h] = p
		}
		h := firstKey(handles)
		assert.Equal(t, AddedAlready, m.Add(h))

		seen := map[string]errkind.Kind{}
		code, running := m.Perform()
		require.Equal(t, MultiOK, code)
		deadline := time.Now().Add(10 * time.Second)
		for len(seen) < len(paths) && time.Now().Before(deadline) {
			if m.Wait(time.Second) > 0 {
				code, running = m.Perform()
				require.Equal(t, MultiOK, code)
			}
			for msg, _ := m.InfoRead(); msg != nil; msg, _ = m.InfoRead() {
				seen[handles[msg.Handle]] = msg.Result
				assert.Equal(t, MultiOK, m.Remove(msg.Handle))
			}
		}
		assert.Equal(t, 0, running)
		assert.Equal(t, map[string]errkind.Kind{"/ok": errkind.OK, "/missing": errkind.OK, "/redirect": errkind.OK}, seen)
		assert.Equal(t, -1, m.Wait(time.Millisecond))
	})
	t.Run("bad handles", func(t *testing.T) {
		m := NewMulti()
		assert.Equal(t, BadEasyHandle, m.Add(nil))
		h, _ := New(server.URL)
		assert.Equal(t, BadEasyHandle, m.Remove(h))
		assert.Equal(t, MultiOK, m.Add(h))
		assert.Equal(t, MultiOK, m.Remove(h))
		code, running := m.Perform()
		assert.Equal(t, MultiOK, code)
		assert.Equal(t, 0, running)
		m.Close()
		assert.Equal(t, BadHandle, m.Add(h))
		code, _ = m.Perform()
		assert.Equal(t, BadHandle, code)
		assert.Equal(t, -1, m.Wait(time.Millisecond))
		msg, remaining := m.InfoRead()
		assert.Nil(t, msg)
		assert.Equal(t, 0, remaining)
	})
	t.Run("wait times out", func(t *testing.T) {
		m := NewMulti()
		defer m.Close()
		h, _ := New(server.URL + "/slow")
		require.NoError(t, h.Configure(Options{ReturnTransfer: true, Timeout: 500 * time.Millisecond}))
		m.Add(h)
		_, running := m.Perform()
		assert.Equal(t, 1, running)
		assert.Equal(t, 0, m.Wait(10*time.Millisecond))
	})
}

func TestMultiCode_String(t *testing.T) {
	assert.Equal(t, "OK", MultiOK.String())
	assert.Equal(t, "CALL_MULTI_PERFORM", CallMultiPerform.String())
	assert.Equal(t, "UNRECOVERABLE_POLL", UnrecoverablePoll.String())
	assert.Equal(t, "MultiCode(99)", MultiCode(99).String())
}

func firstKey(m map[*Handle]string) *Handle {
	for h := range m {
		return h
	}
	return nil
}
