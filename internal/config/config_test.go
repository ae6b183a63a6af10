package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

func TestLoadDispatcherConfigDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_ADDR", "REQUEST_TIMEOUT_MS", "SYNC_INTERVAL", "REDIS_HOST", "REDIS_CHANNEL"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadDispatcherConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerAddr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.ServerAddr)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.RequestTimeout)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("unexpected sync interval: %v", cfg.SyncInterval)
	}
	if cfg.RedisEnabled() {
		t.Fatalf("expected redis to be disabled without REDIS_HOST")
	}
	if cfg.RedisChannel != "endpoints.changed" {
		t.Fatalf("unexpected channel: %s", cfg.RedisChannel)
	}
}

func TestLoadDispatcherConfigFromEnv(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "250")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadDispatcherConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", cfg.RequestTimeout)
	}
	if !cfg.RedisEnabled() || cfg.RedisAddr() != "cache:6380" {
		t.Fatalf("unexpected redis addr: %s", cfg.RedisAddr())
	}
}

func TestLoadDispatcherConfigRejectsMalformedNumber(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "soon")

	_, err := LoadDispatcherConfig()
	var cerr *failure.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cerr.ConfigKey != "SYNC_INTERVAL" {
		t.Fatalf("unexpected key: %s", cerr.ConfigKey)
	}
	if got := err.Error(); got != `Configuration Error: invalid integer "soon" (Config Key: SYNC_INTERVAL)` {
		t.Fatalf("unexpected rendering: %q", got)
	}
}

func TestLoadDispatcherConfigRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "0")

	if _, err := LoadDispatcherConfig(); failure.KindOf(err) != failure.KindConfiguration {
		t.Fatalf("expected configuration failure, got %v", err)
	}
}

func TestLoadDispatcherConfigRejectsNonPositiveSyncInterval(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Setenv("SYNC_INTERVAL", v)

		_, err := LoadDispatcherConfig()
		var cerr *failure.ConfigurationError
		if !errors.As(err, &cerr) || cerr.ConfigKey != "SYNC_INTERVAL" {
			t.Fatalf("SYNC_INTERVAL=%s: expected ConfigurationError for SYNC_INTERVAL, got %v", v, err)
		}
	}
}

func TestLoadEndpointsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.json")
	content := `[{"id":"users","name":"Users API","url":"https://api.example.com/users","method":"GET","headers":{"Accept":"application/json"}}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	eps, err := LoadEndpointsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].ID != "users" || eps[0].Headers["Accept"] != "application/json" {
		t.Fatalf("unexpected endpoints: %+v", eps)
	}
}

func TestLoadEndpointsFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	_, err := LoadEndpointsFile(path)
	var ferr *failure.FileNotFoundError
	if !errors.As(err, &ferr) || ferr.Path != path {
		t.Fatalf("expected FileNotFoundError for %s, got %v", path, err)
	}
}

func TestLoadEndpointsFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadEndpointsFile(path)
	var perr *failure.ParseError
	if !errors.As(err, &perr) || perr.Source != path {
		t.Fatalf("expected ParseError for %s, got %v", path, err)
	}
}
