// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gogama/xfer/request"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable Load reads, so the
// key max_retries is read from XFER_MAX_RETRIES and log.level from
// XFER_LOG_LEVEL.
const EnvPrefix = "XFER"

// Config holds the execution settings shared by the command line front
// end and other embedders.
type Config struct {
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=1000"`
	ThrowOnFailure bool          `mapstructure:"throw_on_failure"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
	FollowLocation bool          `mapstructure:"follow_location"`
	MaxRedirects   int           `mapstructure:"max_redirects" validate:"gte=-1"`
	FailOnError    bool          `mapstructure:"fail_on_error"`
	UserAgent      string        `mapstructure:"user_agent"`
	Insecure       bool          `mapstructure:"insecure"`
	HTTP2          bool          `mapstructure:"http2"`
	Proxy          string        `mapstructure:"proxy" validate:"omitempty,url"`
	CookieFile     string        `mapstructure:"cookie_file"`
	Log            Log           `mapstructure:"log"`
}

// Log configures the logger built by Config.Logger.
type Log struct {
	Level   string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format  string `mapstructure:"format" validate:"oneof=json console pretty"`
	NoColor bool   `mapstructure:"no_color"`
}

var defaults = map[string]interface{}{
	"max_retries":      3,
	"throw_on_failure": false,
	"wait_timeout":     3 * time.Second,
	"timeout":          30 * time.Second,
	"connect_timeout":  10 * time.Second,
	"follow_location":  true,
	"max_redirects":    request.DefaultMaxRedirects,
	"fail_on_error":    false,
	"user_agent":       "xfer",
	"insecure":         false,
	"http2":            true,
	"proxy":            "",
	"cookie_file":      "",
	"log.level":        "info",
	"log.format":       "console",
	"log.no_color":     false,
}

// Default returns the configuration Load produces when no file or
// environment variable sets anything.
func Default() *Config {
	c := &Config{}
	// Defaults always decode.
	_ = newViper().Unmarshal(c)
	return c
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

type loader struct {
	configFile string
	envFile    string
}

// An Option changes where Load looks for settings.
type Option func(*loader)

// WithConfigFile reads settings from path. The format follows the file
// extension (yaml, json, toml and the other formats viper supports).
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile loads the dotenv file at path into the environment before
// reading it. Variables already set take precedence.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// Load builds a Config from defaults, then the optional config file,
// then XFER_ environment variables, and validates the result.
func Load(opts ...Option) (*Config, error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("xfer/config: env file %s: %w", l.envFile, err)
		}
	}

	v := newViper()
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("xfer/config: config file %s: %w", l.configFile, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("xfer/config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDefaults fills in zero-valued settings that have no useful zero
// meaning.
func (c *Config) ApplyDefaults() {
	if c.WaitTimeout == 0 {
		c.WaitTimeout = defaults["wait_timeout"].(time.Duration)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults["log.level"].(string)
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults["log.format"].(string)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every setting, reporting all invalid ones at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("xfer/config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("xfer/config: invalid configuration: %s", strings.Join(msgs, "; "))
}

// ApplyPlan copies the transfer settings onto p.
func (c *Config) ApplyPlan(p *request.Plan) {
	p.Timeout = c.Timeout
	p.ConnectTimeout = c.ConnectTimeout
	p.SetFollowLocation(c.FollowLocation, c.MaxRedirects, c.FollowLocation)
	p.FailOnError = c.FailOnError
	if c.UserAgent != "" {
		p.UserAgent = c.UserAgent
	}
	p.SetVerify(!c.Insecure, !c.Insecure)
	p.HTTP2 = c.HTTP2
	if c.Proxy != "" {
		p.SetProxy(c.Proxy, "", "")
	}
	if c.CookieFile != "" {
		p.CookieFile = c.CookieFile
	}
}

// Logger returns a logger writing to standard error.
func (c *Config) Logger() zerolog.Logger {
	return c.LoggerTo(os.Stderr)
}

// LoggerTo returns a logger writing to w: human-readable lines for the
// console and pretty formats, JSON otherwise.
func (c *Config) LoggerTo(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: c.Log.NoColor}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
