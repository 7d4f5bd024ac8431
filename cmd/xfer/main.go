// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command xfer fetches URLs and prints one JSON result per URL.
//
// By default every URL is fetched concurrently by a Scheduler, with one
// attempt each. With --single the URLs are fetched one after the other
// by a Runner, retrying continuable failures.
//
// Usage:
//
//	xfer [flags] URL...
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogama/xfer"
	"github.com/gogama/xfer/config"
	"github.com/gogama/xfer/request"
	"github.com/gogama/xfer/result"
	"github.com/gogama/xfer/retry"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configFile string
	envFile    string
	single     bool
	retries    int
	throw      bool
	method     string
	data       string
	headers    []string
	noHeader   bool
	logLevel   string
}

type output struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Success      bool          `json:"success"`
	Status       int           `json:"status,omitempty"`
	ErrorKind    string        `json:"error_kind"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Header       []string      `json:"header,omitempty"`
	Body         *string       `json:"body,omitempty"`
	Timing       result.Timing `json:"timing"`
}

func run(args []string, stdout, stderr io.Writer) int {
	var o options
	fs := flag.NewFlagSet("xfer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.configFile, "config", "c", "", "config file (yaml, json or toml)")
	fs.StringVar(&o.envFile, "env-file", "", "dotenv file loaded before reading XFER_ variables")
	fs.BoolVarP(&o.single, "single", "s", false, "fetch sequentially with retries instead of concurrently")
	fs.IntVarP(&o.retries, "retries", "r", -1, "retry budget per URL with --single (default from config)")
	fs.BoolVar(&o.throw, "throw", false, "exit non-zero on the first failed URL with --single")
	fs.StringVarP(&o.method, "request", "X", "GET", "HTTP method")
	fs.StringVarP(&o.data, "data", "d", "", "request body")
	fs.StringArrayVarP(&o.headers, "header", "H", nil, `extra request header "Name: value" (repeatable)`)
	fs.BoolVar(&o.noHeader, "no-header", false, "omit the response header from results")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (default from config)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	urls := fs.Args()
	if len(urls) == 0 {
		fmt.Fprintln(stderr, "xfer: no URLs given")
		fs.Usage()
		return 2
	}

	var loadOpts []config.Option
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.envFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.retries >= 0 {
		cfg.MaxRetries = o.retries
	}
	if o.throw {
		cfg.ThrowOnFailure = true
	}
	log := cfg.LoggerTo(stderr)

	channels := make([]*xfer.Channel, 0, len(urls))
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()
	for _, u := range urls {
		ch, err := newChannel(cfg, &o, u)
		if err != nil {
			fmt.Fprintf(stderr, "xfer: %s: %v\n", u, err)
			return 1
		}
		channels = append(channels, ch)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if o.single {
		r := &xfer.Runner{
			RetryPolicy: retry.DefaultPolicy,
			Logger:      &log,
		}
		code := 0
		for _, ch := range channels {
			ent, err := r.Exec(ch, cfg.MaxRetries, cfg.ThrowOnFailure)
			if ent != nil {
				_ = enc.Encode(toOutput(ent, !o.noHeader))
			}
			if err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
			if !ent.Success {
				code = 1
			}
		}
		return code
	}

	s, err := xfer.NewScheduler(channels...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.Close()
	s.WaitTimeout = cfg.WaitTimeout
	s.Logger = &log
	results, err := s.Exec()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	code := 0
	for _, ch := range channels {
		ent := results[ch.ID()]
		_ = enc.Encode(toOutput(ent, !o.noHeader))
		if !ent.Success {
			code = 1
		}
	}
	if ent, ok := results[xfer.NotFoundID]; ok {
		log.Error().Str("url", ent.URL).Msg("unmatched transfer")
		code = 1
	}
	return code
}

func newChannel(cfg *config.Config, o *options, u string) (*xfer.Channel, error) {
	var body interface{}
	if o.data != "" {
		body = o.data
	}
	p, err := request.NewPlan(o.method, u, body)
	if err != nil {
		return nil, err
	}
	cfg.ApplyPlan(p)
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("bad header %q", h)
		}
		p.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	p.AcceptEncoding = "*"
	p.SetReturnTransfer(true, !o.noHeader)
	return xfer.NewChannel(p)
}

// toOutput converts ent for printing. The scheduler always captures
// headers, so withHeader is what honors --no-header in that mode.
func toOutput(ent *result.Entity, withHeader bool) output {
	out := output{
		ID:           ent.ID,
		URL:          ent.URL,
		Success:      ent.Success,
		Status:       ent.StatusCode(),
		ErrorKind:    ent.ErrorKind.String(),
		ErrorMessage: ent.ErrorMessage,
		Timing:       ent.Timing,
	}
	if withHeader {
		out.Header = ent.HeaderLines()
	}
	if ent.Body != nil {
		s, err := ent.DecodedBody()
		if err != nil {
			s = string(ent.Body)
		}
		out.Body = &s
	}
	return out
}
