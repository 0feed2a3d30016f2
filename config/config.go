/*
Package config holds the configuration of the calculation service.

Configuration is read from a YAML file. Values may reference environment
variables as ${VAR} or ${VAR:-default}. Settings missing from the file keep
their defaults, see Defaults.

    limits:
      max_formula_length: 2000
      deny_list: [eval, exec, system]
    cache:
      ttl: 5m
    execution:
      workers: ${SCOREX_WORKERS:-8}
      timeout: 2s

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.config'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.config")
}

// Config is the root configuration structure.
type Config struct {
	Limits    LimitsConfig    `yaml:"limits"`
	Cache     CacheConfig     `yaml:"cache"`
	Execution ExecutionConfig `yaml:"execution"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Path      string          `yaml:"-"` // file the configuration has been loaded from, if any
}

// LimitsConfig holds the validation and policy limits for formulas.
//
// The resource estimate of a formula is derived from its complexity score
//
//    length + operators + maxParenDepth*DepthWeight + functionCalls*FunctionWeight
//
// multiplied by TimePerPoint and MemoryPerPoint respectively.
type LimitsConfig struct {
	MaxFormulaLength int           `yaml:"max_formula_length"`
	MaxVariables     int           `yaml:"max_variables"`
	DenyList         []string      `yaml:"deny_list"` // identifiers formulas must not contain
	DepthWeight      int           `yaml:"depth_weight"`
	FunctionWeight   int           `yaml:"function_weight"`
	TimePerPoint     time.Duration `yaml:"time_per_point"`
	MemoryPerPoint   int64         `yaml:"memory_per_point"` // bytes
	MaxTime          time.Duration `yaml:"max_time"`         // upper bound for the predicted time
	MaxMemory        int64         `yaml:"max_memory"`       // upper bound for the predicted memory, in bytes
}

// CacheConfig holds settings for the result cache and the cache of compiled formulas.
type CacheConfig struct {
	Enabled          bool          `yaml:"enabled"`
	TTL              time.Duration `yaml:"ttl"`
	MaxEntries       int           `yaml:"max_entries"`
	SweepEvery       int           `yaml:"sweep_every"` // run eviction every n stores
	CompiledCapacity int           `yaml:"compiled_capacity"`
}

// ExecutionConfig holds settings for evaluation.
type ExecutionConfig struct {
	Workers    int           `yaml:"workers"` // size of the worker pool for parallel calculation
	Timeout    time.Duration `yaml:"timeout"` // per-request timeout, if not set by the request
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"` // linear backoff between retries
}

// RateLimitConfig holds settings for the per-session rate limit.
// A limit of 0 requests disables rate limiting.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// DefaultDenyList lists identifiers which hint at attempts to reach out of the
// formula language.
var DefaultDenyList = []string{"eval", "exec", "system", "runtime", "process",
	"import", "script", "shell", "file", "class"}

// Defaults returns a configuration with default values.
func Defaults() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxFormulaLength: 1000,
			MaxVariables:     100,
			DenyList:         append([]string(nil), DefaultDenyList...),
			DepthWeight:      5,
			FunctionWeight:   10,
			TimePerPoint:     10 * time.Microsecond,
			MemoryPerPoint:   256,
			MaxTime:          time.Second,
			MaxMemory:        16 << 20, // 16 MiB
		},
		Cache: CacheConfig{
			Enabled:          true,
			TTL:              10 * time.Minute,
			MaxEntries:       10000,
			SweepEvery:       100,
			CompiledCapacity: 256,
		},
		Execution: ExecutionConfig{
			Workers:    4,
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			Backoff:    10 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Requests: 1000,
			Window:   time.Minute,
		},
	}
}
