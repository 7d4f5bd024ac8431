// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const badBodyTypeMsg = "xfer/request: invalid type (for body use nil, " +
	"string, []byte, url.Values, io.Reader or io.ReadCloser)"

// BodyBytes buffers a body argument, as accepted by NewPlan, into the
// bytes a Plan sends.
//
// A nil body gives nil. A string or []byte is used as is, and
// url.Values is form-encoded. A reader is read to the end, and closed
// if it is an io.Closer; an error from either step is returned with a
// nil slice. Any other type is an error. Use JSONBody for structured
// values.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case url.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		if c, ok := x.(io.Closer); ok {
			if err = c.Close(); err != nil {
				return nil, err
			}
		}
		return b, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// JSONBody encodes v as a JSON request body.
func JSONBody(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("xfer/request: encoding JSON body: %w", err)
	}
	return b, nil
}

// SetJSONBody replaces the plan body with v encoded as JSON and sets
// the Content-Type header to application/json. On error the plan is
// unchanged.
func (p *Plan) SetJSONBody(v interface{}) error {
	b, err := JSONBody(v)
	if err != nil {
		return err
	}
	p.Body = b
	if p.Header == nil {
		p.Header = make(http.Header)
	}
	p.Header.Set("Content-Type", "application/json")
	return nil
}
