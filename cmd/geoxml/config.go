package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

// Config is the YAML configuration of the inspect command. Flags given on
// the command line take precedence over the file.
type Config struct {
	LogLevel            string `yaml:"log_level"`
	Workers             int    `yaml:"workers"`
	ProcessStyles       bool   `yaml:"process_styles"`
	SuppressInfoWindows bool   `yaml:"suppress_info_windows"`
	ForceArchive        bool   `yaml:"force_archive"`
	SizeCacheEntries    int    `yaml:"size_cache_entries"`

	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig controls remote fetches.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:         "warn",
		SizeCacheEntries: geoxml.DefaultSizeCacheEntries,
		HTTP: HTTPConfig{
			Timeout: geoxml.DefaultFetchTimeout,
			Burst:   1,
		},
	}
}

// LoadConfig reads path over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Workers < 0:
		return errors.Newf("workers must not be negative, got %d", c.Workers)
	case c.SizeCacheEntries < 0:
		return errors.Newf("size_cache_entries must not be negative, got %d", c.SizeCacheEntries)
	case c.HTTP.RequestsPerSecond < 0:
		return errors.Newf("http.requests_per_second must not be negative, got %g", c.HTTP.RequestsPerSecond)
	}
	return nil
}

// Options maps the configuration onto parser options. fetched, when not
// nil, accumulates the number of bytes read by the fetcher.
func (c Config) Options(log *zap.Logger, fetched *atomic.Int64) geoxml.Options {
	opts := geoxml.DefaultOptions()
	opts.Logger = log
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	opts.ProcessStyles = c.ProcessStyles
	opts.SuppressInfoWindows = c.SuppressInfoWindows
	opts.ForceArchive = c.ForceArchive
	opts.SizeCache = geoxml.NewSizeCache(c.SizeCacheEntries)
	opts.Fetcher = c.fetcher(fetched)
	return opts
}

// fetcher routes http(s) URLs to an HTTPFetcher and everything else to
// the local file system.
func (c Config) fetcher(fetched *atomic.Int64) geoxml.Fetcher {
	remote := geoxml.NewHTTPFetcher(&http.Client{Timeout: c.HTTP.Timeout})
	if c.HTTP.RequestsPerSecond > 0 {
		burst := c.HTTP.Burst
		if burst < 1 {
			burst = 1
		}
		remote.Limiter = rate.NewLimiter(rate.Limit(c.HTTP.RequestsPerSecond), burst)
	}
	local := geoxml.FSFetcher{FS: os.DirFS("/")}

	return geoxml.FetcherFunc(func(ctx context.Context, u string) ([]byte, error) {
		var (
			data []byte
			err  error
		)
		if isRemote(u) {
			data, err = remote.Fetch(ctx, u)
		} else {
			data, err = local.Fetch(ctx, u)
		}
		if err == nil && fetched != nil {
			fetched.Add(int64(len(data)))
		}
		return data, err
	})
}

func isRemote(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// sourceURL turns a command line argument into a parser URL. Local paths
// become absolute slash paths.
func sourceURL(arg string) (string, error) {
	if isRemote(arg) {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", arg)
	}
	return filepath.ToSlash(abs), nil
}
