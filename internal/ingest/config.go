// Package ingest drives the page, link-target, and link loaders to completion over a single
// reader/pipeline thread pair per stage, arranging that the auxiliary
// lookup structures built along the way are reclaimed the moment a
// later stage no longer needs them.
package ingest

import (
	"runtime"
	"time"
)

const (
	defaultRefreshRate = 200 * time.Millisecond
	defaultChunkSize   = 4 << 20
)

// Config holds the ingest tunables: refresh_rate, parallelism, and
// chunk_size. It is constructed with NewConfig plus
// functional options, scoping a component's own construction
// parameters (compare bspgraph.GraphConfig) rather than reading a
// global flag or viper tree.
type Config struct {
	RefreshRate time.Duration
	Parallelism int
	ChunkSize   int64
}

// Option configures a Config.
type Option func(*Config)

// WithRefreshRate overrides the minimum interval between progress
// callbacks. NewConfig replaces a zero or negative value with the
// default.
func WithRefreshRate(d time.Duration) Option {
	return func(c *Config) { c.RefreshRate = d }
}

// WithParallelism sets the worker count used by the parallel
// decompression profile. 0 means "use all available hardware threads".
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

// WithChunkSize sets the parallel profile's decompression stripe size,
// in bytes.
func WithChunkSize(n int64) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// NewConfig returns a Config with sensible defaults (200ms refresh,
// all hardware threads, 4 MiB chunks), applying opts over them.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		RefreshRate: defaultRefreshRate,
		Parallelism: runtime.GOMAXPROCS(0),
		ChunkSize:   defaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.RefreshRate <= 0 {
		c.RefreshRate = defaultRefreshRate
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	return c
}
