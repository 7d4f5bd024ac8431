// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package engine

import "time"

// Info keys reported after a transfer.
const (
	InfoURL            = "url"
	InfoContentType    = "content_type"
	InfoHTTPCode       = "http_code"
	InfoHeaderSize     = "header_size"
	InfoRequestSize    = "request_size"
	InfoRedirectCount  = "redirect_count"
	InfoRedirectURL    = "redirect_url"
	InfoPrimaryIP      = "primary_ip"
	InfoHTTPVersion    = "http_version"
	InfoSizeUpload     = "size_upload"
	InfoSizeDownload   = "size_download"
	InfoSpeedUpload    = "speed_upload"
	InfoSpeedDownload  = "speed_download"
	InfoTotalTime      = "total_time"
	InfoNameLookupTime = "namelookup_time"
	InfoConnectTime    = "connect_time"
	InfoAppConnectTime = "appconnect_time"
	InfoPreTransfer    = "pretransfer_time"
	InfoStartTransfer  = "starttransfer_time"
	InfoRedirectTime   = "redirect_time"

	// Microsecond variants of the times above.
	InfoTotalTimeUS      = "total_time_us"
	InfoNameLookupTimeUS = "namelookup_time_us"
	InfoConnectTimeUS    = "connect_time_us"
	InfoAppConnectTimeUS = "appconnect_time_us"
	InfoPreTransferUS    = "pretransfer_time_us"
	InfoStartTransferUS  = "starttransfer_time_us"
	InfoRedirectTimeUS   = "redirect_time_us"
)

// Info holds the raw statistics of the most recent transfer made with a
// handle. Values are int64 for counts and microsecond times, float64
// for second times and speeds, and string for text.
//
// A nil Info is valid and empty.
type Info map[string]interface{}

// Has reports whether key is present.
func (i Info) Has(key string) bool {
	_, ok := i[key]
	return ok
}

// Int returns the value of key as an int64. Float values are truncated.
// The second return value is false if key is absent or not numeric.
func (i Info) Int(key string) (int64, bool) {
	switch v := i[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float returns the value of key as a float64. The second return value
// is false if key is absent or not numeric.
func (i Info) Float(key string) (float64, bool) {
	switch v := i[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the value of key as a string. The second return value
// is false if key is absent or not a string.
func (i Info) String(key string) (string, bool) {
	v, ok := i[key].(string)
	return v, ok
}

func (i Info) setTime(key, keyUS string, d time.Duration) {
	i[key] = d.Seconds()
	i[keyUS] = d.Microseconds()
}
