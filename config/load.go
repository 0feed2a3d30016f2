package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath is the environment variable which may name a configuration file.
const EnvConfigPath = "SCOREX_CONFIG"

// DefaultFile is the configuration file looked for in the working directory.
const DefaultFile = "scorex.yaml"

// Load loads the configuration from a file. If configPath is empty, the file
// is located by
//
//    1. environment variable SCOREX_CONFIG
//    2. ./scorex.yaml
//
// If no file is found, the defaults are returned. getenv is used for
// environment lookups, both for the path and for interpolation; nil means os.Getenv.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, err
	}
	if path == "" {
		tracer().Infof("no configuration file found, using defaults")
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data, getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	tracer().Infof("configuration loaded from %s", path)
	return cfg, nil
}

// Parse reads a configuration from YAML data, on top of the defaults.
// The result is validated.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	data = interpolateEnv(data, getenv)
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	if envPath := getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s not found: %s", EnvConfigPath, envPath)
		}
		return envPath, nil
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate checks a configuration for errors.
func (cfg *Config) Validate() error {
	var errs []string
	lim := cfg.Limits
	if lim.MaxFormulaLength < 1 {
		errs = append(errs, fmt.Sprintf("limits.max_formula_length must be positive, is %d", lim.MaxFormulaLength))
	}
	if lim.MaxVariables < 0 {
		errs = append(errs, fmt.Sprintf("limits.max_variables must not be negative, is %d", lim.MaxVariables))
	}
	if lim.DepthWeight < 0 || lim.FunctionWeight < 0 {
		errs = append(errs, "limits: complexity weights must not be negative")
	}
	if lim.TimePerPoint < 0 || lim.MemoryPerPoint < 0 || lim.MaxTime < 0 || lim.MaxMemory < 0 {
		errs = append(errs, "limits: resource limits must not be negative")
	}
	for i, word := range lim.DenyList {
		if strings.TrimSpace(word) == "" {
			errs = append(errs, fmt.Sprintf("limits.deny_list[%d] is empty", i))
		}
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.TTL <= 0 {
			errs = append(errs, fmt.Sprintf("cache.ttl must be positive, is %s", cfg.Cache.TTL))
		}
		if cfg.Cache.MaxEntries < 1 {
			errs = append(errs, fmt.Sprintf("cache.max_entries must be positive, is %d", cfg.Cache.MaxEntries))
		}
	}
	if cfg.Cache.SweepEvery < 1 {
		errs = append(errs, fmt.Sprintf("cache.sweep_every must be positive, is %d", cfg.Cache.SweepEvery))
	}
	if cfg.Cache.CompiledCapacity < 0 {
		errs = append(errs, fmt.Sprintf("cache.compiled_capacity must not be negative, is %d", cfg.Cache.CompiledCapacity))
	}
	ex := cfg.Execution
	if ex.Workers < 1 {
		errs = append(errs, fmt.Sprintf("execution.workers must be positive, is %d", ex.Workers))
	}
	if ex.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("execution.timeout must be positive, is %s", ex.Timeout))
	}
	if ex.MaxRetries < 0 || ex.Backoff < 0 {
		errs = append(errs, "execution: retries and backoff must not be negative")
	}
	if cfg.RateLimit.Requests < 0 {
		errs = append(errs, fmt.Sprintf("rate_limit.requests must not be negative, is %d", cfg.RateLimit.Requests))
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window <= 0 {
		errs = append(errs, "rate_limit.window must be positive if rate limiting is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
