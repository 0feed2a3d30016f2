package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if len(cfg.Limits.DenyList) != len(DefaultDenyList) {
		t.Errorf("expected default deny list, got %v", cfg.Limits.DenyList)
	}
	cfg.Limits.DenyList[0] = "changed"
	if DefaultDenyList[0] == "changed" {
		t.Errorf("defaults must not share the deny list")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.config")
	defer teardown()
	//
	data := []byte(`
limits:
  max_formula_length: 200
  deny_list: [eval, exec]
cache:
  ttl: 30s
execution:
  workers: ${WORKERS:-2}
  timeout: 1500ms
rate_limit:
  requests: ${RATE}
`)
	cfg, err := Parse(data, env(map[string]string{"RATE": "50"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Limits.MaxFormulaLength != 200 || len(cfg.Limits.DenyList) != 2 {
		t.Errorf("limits not overridden: %+v", cfg.Limits)
	}
	if cfg.Limits.MaxVariables != 100 {
		t.Errorf("expected default for max_variables, got %d", cfg.Limits.MaxVariables)
	}
	if cfg.Cache.TTL != 30*time.Second || !cfg.Cache.Enabled {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Execution.Workers != 2 || cfg.Execution.Timeout != 1500*time.Millisecond {
		t.Errorf("unexpected execution config %+v", cfg.Execution)
	}
	if cfg.RateLimit.Requests != 50 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit config %+v", cfg.RateLimit)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := env(map[string]string{"A": "x"})
	for _, test := range []struct {
		in, out string
	}{
		{"${A}", "x"},
		{"${A:-y}", "x"},
		{"${B:-y}", "y"},
		{"${B}", ""},
		{"a${A}b", "axb"},
		{"$A", "$A"},
	} {
		if s := string(interpolateEnv([]byte(test.in), getenv)); s != test.out {
			t.Errorf("%q: expected %q, got %q", test.in, test.out, s)
		}
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(*Config)
		msg    string
	}{
		{"length", func(c *Config) { c.Limits.MaxFormulaLength = 0 }, "max_formula_length"},
		{"workers", func(c *Config) { c.Execution.Workers = 0 }, "execution.workers"},
		{"timeout", func(c *Config) { c.Execution.Timeout = 0 }, "execution.timeout"},
		{"ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"deny", func(c *Config) { c.Limits.DenyList = []string{" "} }, "deny_list[0]"},
		{"window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
	} {
		cfg := Defaults()
		test.modify(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: expected error mentioning %q, got %v", test.name, test.msg, err)
		}
	}
	cfg := Defaults()
	cfg.Cache.Enabled = false
	cfg.Cache.TTL = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("TTL of disabled cache should not be checked: %v", err)
	}
}

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.config")
	defer teardown()
	//
	dir := t.TempDir()
	path := filepath.Join(dir, "calc.yaml")
	if err := os.WriteFile(path, []byte("execution:\n  max_retries: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Execution.MaxRetries != 5 || cfg.Path != path {
		t.Errorf("unexpected config %+v", cfg)
	}
	cfg, err = Load("", env(map[string]string{EnvConfigPath: path}))
	if err != nil || cfg.Execution.MaxRetries != 5 {
		t.Errorf("expected config from %s, got %v", EnvConfigPath, err)
	}
	if _, err = Load(filepath.Join(dir, "missing.yaml"), env(nil)); err == nil {
		t.Errorf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("execution:\n  workers: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err = Load(bad, env(nil)); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.config")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "scorex.yaml")
	if err := os.WriteFile(path, []byte("execution:\n  max_retries: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan *Config, 10)
	if err := Watch(ctx, path, env(nil), func(cfg *Config) { changes <- cfg }, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("execution:\n  max_retries: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Execution.MaxRetries == 7 {
				return
			}
		case <-timeout:
			t.Fatalf("configuration change not noticed")
		}
	}
}
