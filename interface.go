// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package xfer

import (
	"net/url"

	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/result"
)

// An Executor executes a channel through a bounded retry loop. Runner
// implements Executor.
type Executor interface {
	Exec(ch *Channel, maxRetries int, throwOnFinalFailure bool) (*result.Entity, error)
}

// Get issues a GET to the specified URL using x, capturing the response
// header and body and retrying up to maxRetries times. The channel is
// closed when Get returns.
//
// To make a request with custom options, use request.NewPlan,
// NewChannel and Executor.Exec.
func Get(x Executor, url string, maxRetries int) (*result.Entity, error) {
	return do(x, "GET", url, "", nil, maxRetries)
}

// Head issues a HEAD to the specified URL using x, in the same way as
// Get.
func Head(x Executor, url string, maxRetries int) (*result.Entity, error) {
	return do(x, "HEAD", url, "", nil, maxRetries)
}

// Post issues a POST to the specified URL using x, in the same way as
// Get.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewPlan and request.BodyBytes, namely:
// string; []byte; url.Values; io.Reader; and io.ReadCloser. Encode a
// structured value with request.JSONBody first.
func Post(x Executor, url, contentType string, body interface{}, maxRetries int) (*result.Entity, error) {
	return do(x, "POST", url, contentType, body, maxRetries)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
func PostForm(x Executor, url string, data url.Values, maxRetries int) (*result.Entity, error) {
	return Post(x, url, "application/x-www-form-urlencoded", data.Encode(), maxRetries)
}

func do(x Executor, method, url, contentType string, body interface{}, maxRetries int) (*result.Entity, error) {
	p, err := request.NewPlan(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		p.Header.Set("Content-Type", contentType)
	}
	p.SetReturnTransfer(true, true)
	ch, err := NewChannel(p)
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	return x.Exec(ch, maxRetries, false)
}
