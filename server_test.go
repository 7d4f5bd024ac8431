// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/retry"
	"github.com/gogama/xfer/timeout"
)

var httpServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var httpsServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var http2Server = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var servers = []*httptest.Server{httpServer, httpsServer, http2Server}

func TestMain(m *testing.M) {
	httpServer.Start()
	defer httpServer.Close()
	httpsServer.StartTLS()
	defer httpsServer.Close()
	http2Server.EnableHTTP2 = true
	http2Server.StartTLS()
	defer http2Server.Close()
	waitForServerStart(httpServer)
	waitForServerStart(httpsServer)
	waitForServerStart(http2Server)
	os.Exit(m.Run())
}

func waitForServerStart(server *httptest.Server) {
	r := &Runner{
		RetryPolicy:   retry.NewPolicy(retry.Before(10*time.Second).And(retry.Continuable), retry.DefaultWaiter),
		TimeoutPolicy: timeout.Fixed(2 * time.Second),
	}
	ch := (&serverInstruction{StatusCode: 200}).toChannel(context.Background(), server)
	defer ch.Close()
	ent, err := r.Exec(ch, 100, false)
	if err != nil || ent.StatusCode() != 200 {
		panic(fmt.Sprintf("Test server startup failed with status %d and error %v",
			ent.StatusCode(), err))
	}
}

func serverName(server *httptest.Server) string {
	switch server {
	case httpServer:
		return "http"
	case httpsServer:
		return "https"
	case http2Server:
		return "http2"
	default:
		panic("unknown server")
	}
}

// closedPortURL returns a URL nothing listens on.
func closedPortURL(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return "http://" + addr + "/"
}

type bodyChunk struct {
	Pause time.Duration
	Data  []byte
}

// A serverInstruction tells serverHandler how to respond. It travels as
// the JSON body of a POST.
type serverInstruction struct {
	HeaderPause time.Duration
	StatusCode  int
	Header      map[string]string
	Body        []bodyChunk
}

func (i *serverInstruction) toJSON() []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}

	return b
}

func (i *serverInstruction) toPlan(ctx context.Context, server *httptest.Server) *request.Plan {
	p, err := request.NewPlanWithContext(ctx, "POST", server.URL, i.toJSON())
	if err != nil {
		panic(err)
	}
	p.HTTP2 = server == http2Server

	return p
}

func (i *serverInstruction) toChannel(ctx context.Context, server *httptest.Server) *Channel {
	ch, err := NewChannel(i.toPlan(ctx, server))
	if err != nil {
		panic(err)
	}

	return ch
}

func (i *serverInstruction) fromRequest(req *http.Request) error {
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()

	if err != nil {
		return err
	}

	return json.Unmarshal(b, i)
}

func serverHandler(w http.ResponseWriter, req *http.Request) {
	// Decode the instructions.
	var i serverInstruction
	err := i.fromRequest(req)
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read request: %s", err.Error()))
		return
	}

	// Validate the instruction.
	if i.StatusCode == 0 {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("bad StatusCode in instruction: %v", i))
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		panic("w does not implement Flusher")
	}

	contentLength := 0
	for _, chunk := range i.Body {
		contentLength += len(chunk.Data)
	}

	header := w.Header()
	header.Add("Content-Length", strconv.Itoa(contentLength))
	for k, v := range i.Header {
		header.Set(k, v)
	}

	// Sleep for the duration indicated by the pause field. This is done
	// to allow the client to play with timeouts.
	time.Sleep(i.HeaderPause)

	w.WriteHeader(i.StatusCode)
	f.Flush()

	// Write the response in chunks, pausing before each chunk.
	for _, chunk := range i.Body {
		if chunk.Pause > 0 {
			time.Sleep(chunk.Pause)
		}
		if _, err = w.Write(chunk.Data); err != nil {
			return
		}
		f.Flush()
	}
}
