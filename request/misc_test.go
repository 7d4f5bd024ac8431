// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBodyBytes(t *testing.T) {
	var b []byte
	var err error
	t.Run("happy path", func(t *testing.T) {
		b, err = BodyBytes(nil)
		assert.Nil(t, b)
		assert.NoError(t, err)
		b, err = BodyBytes("foo")
		assert.Equal(t, []byte("foo"), b)
		assert.NoError(t, err)
		b2 := []byte("bar")
		b, err = BodyBytes(b2)
		assert.Equal(t, []byte("bar"), b)
		assert.Equal(t, b, b2)
		b, err = BodyBytes(strings.NewReader("baz"))
		assert.Equal(t, []byte("baz"), b)
		assert.NoError(t, err)
		b, err = BodyBytes(io.NopCloser(bytes.NewReader(b2)))
		assert.Equal(t, []byte("bar"), b)
		assert.NoError(t, err)
		b, err = BodyBytes(url.Values{"q": {"a b"}, "n": {"1"}})
		assert.Equal(t, "n=1&q=a+b", string(b))
		assert.NoError(t, err)
		b, err = BodyBytes(10)
		assert.Nil(t, b)
		assert.EqualError(t, err, badBodyTypeMsg)
	})
	t.Run("reader errors", func(t *testing.T) {
		expectedErr := errors.New("ham")
		t.Run("Read", func(t *testing.T) {
			m := &mockReadCloser{}
			m.Test(t)
			m.On("Read", mock.Anything).Return(10, expectedErr).Once()
			b, err = BodyBytes(m)
			assert.Nil(t, b)
			assert.Error(t, err)
			assert.Same(t, expectedErr, err)
			m.AssertExpectations(t)
		})
		t.Run("Close", func(t *testing.T) {
			m := &mockReadCloser{}
			m.Test(t)
			m.On("Read", mock.Anything).Return(0, io.EOF).Once()
			m.On("Close").Return(expectedErr).Once()
			b, err = BodyBytes(m)
			assert.Nil(t, b)
			assert.Error(t, err)
			assert.Same(t, expectedErr, err)
			m.AssertExpectations(t)
		})
	})
}

func TestJSONBody(t *testing.T) {
	b, err := JSONBody(map[string]interface{}{"name": "xfer", "tags": []string{"a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"xfer","tags":["a"]}`, string(b))

	_, err = JSONBody(make(chan int))
	assert.ErrorContains(t, err, "xfer/request: encoding JSON body")

	t.Run("SetJSONBody", func(t *testing.T) {
		p, err := NewPlan("POST", "http://example.com", "old")
		require.NoError(t, err)
		require.NoError(t, p.SetJSONBody(struct {
			ID int `json:"id"`
		}{7}))
		assert.Equal(t, `{"id":7}`, string(p.Body))
		assert.Equal(t, "application/json", p.Header.Get("Content-Type"))
		assert.Equal(t, `{"id":7}`, string(p.Options().Body))

		assert.Error(t, p.SetJSONBody(func() {}))
		assert.Equal(t, `{"id":7}`, string(p.Body), "unchanged on error")
	})
}

type mockReadCloser struct {
	mock.Mock
}

func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	args := m.Called(p)
	n = args.Int(0)
	err = args.Error(1)
	return
}

func (m *mockReadCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}
