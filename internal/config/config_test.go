package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 30m", cfg.ConnMaxLifetime)
	}
	if cfg.SeedInterval != 0 {
		t.Errorf("SeedInterval = %v, want 0", cfg.SeedInterval)
	}
	if cfg.AllowedCIDRS != nil {
		t.Errorf("AllowedCIDRS = %v, want nil", cfg.AllowedCIDRS)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TINYLINK_STORE_DRIVER", "MEMORY")
	t.Setenv("TINYLINK_REQUEST_TIMEOUT", "2s")
	t.Setenv("TINYLINK_BASE_URL", "https://sho.rt/")
	t.Setenv("TINYLINK_ALLOWED_CIDRS", `10.0.0.0/8, "127.0.0.1"`)
	t.Setenv("TINYLINK_TRUST_PROXY", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverMemory)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v, want 2s", cfg.RequestTimeout)
	}
	if cfg.BaseURL != "https://sho.rt" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.BaseURL)
	}
	want := []string{"10.0.0.0/8", "127.0.0.1"}
	if len(cfg.AllowedCIDRS) != len(want) {
		t.Fatalf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, want)
	}
	for i := range want {
		if cfg.AllowedCIDRS[i] != want[i] {
			t.Errorf("AllowedCIDRS[%d] = %q, want %q", i, cfg.AllowedCIDRS[i], want[i])
		}
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy = false, want true")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinylink.yaml")
	content := `store_driver: redis
redis_addr: cache:6379
redis_db: 2
seed_interval: 1h
allowed_cidrs:
  - 192.168.0.0/16
  - 10.1.2.3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TINYLINK_REDIS_DB", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StoreDriver != DriverRedis || cfg.RedisAddr != "cache:6379" {
		t.Errorf("driver/addr = %q/%q, want redis/cache:6379", cfg.StoreDriver, cfg.RedisAddr)
	}
	if cfg.RedisDB != 5 {
		t.Errorf("RedisDB = %d, env should win over file", cfg.RedisDB)
	}
	if cfg.SeedInterval != time.Hour {
		t.Errorf("SeedInterval = %v, want 1h", cfg.SeedInterval)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "10.1.2.3" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinylink.yaml")
	if err := os.WriteFile(path, []byte("listen_port: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TINYLINK_CONFIG_FILE", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenPort != ":9090" {
		t.Errorf("ListenPort = %q, want :9090", cfg.ListenPort)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"TINYLINK_STORE_DRIVER": "mongo"},
			wantErr: `unknown store_driver "mongo"`,
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"TINYLINK_STORE_DRIVER": "postgres"},
			wantErr: "database_url is required",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"TINYLINK_PING_TIMEOUT": "soon"},
			wantErr: "ping_timeout",
		},
		{
			name:    "zero timeout",
			env:     map[string]string{"TINYLINK_REQUEST_TIMEOUT": "0s"},
			wantErr: "request_timeout must be > 0",
		},
		{
			name:    "negative seed interval",
			env:     map[string]string{"TINYLINK_SEED_INTERVAL": "-1m"},
			wantErr: "seed_interval must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/tinylink.yaml"); err == nil {
		t.Error("Load() with a missing config file should fail")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "10.0.0.1", expected: []string{"10.0.0.1"}},
		{name: "spaces and quotes", input: ` a , 'b',"c" `, expected: []string{"a", "b", "c"}},
		{name: "empty parts dropped", input: "a,,b,", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{RedisPassword: "hunter2", DatabaseURL: "postgres://u:p@db/x"}
	r := cfg.Redacted()
	if strings.Contains(r.RedisPassword, "hunter2") || strings.Contains(r.DatabaseURL, "u:p") {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if cfg.RedisPassword != "hunter2" {
		t.Error("Redacted() must not modify the receiver's original")
	}
}
