package tubelens

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", `
server:
  addr: ":9090"
cache:
  redis_addr: "localhost:6379"
  max_memory_entries: 50
sessions:
  max_turns: 4
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr override, got %q", cfg.Server.Addr)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.MaxMemoryEntries != 50 {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	// Omitted options keep their defaults.
	if cfg.Cache.DefaultTTLSeconds != DefaultConfig().Cache.DefaultTTLSeconds {
		t.Errorf("expected default TTL, got %d", cfg.Cache.DefaultTTLSeconds)
	}
	if cfg.Sessions.MaxTurns != 4 {
		t.Errorf("expected max_turns override, got %d", cfg.Sessions.MaxTurns)
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{"analysis": {"log_driver": "off"}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Analysis.LogDriver != "off" {
		t.Errorf("expected log_driver off, got %q", cfg.Analysis.LogDriver)
	}
}

func TestLoadConfig_SchemaRejectsWrongType(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", `
cache:
  max_memory_entries: "lots"
`)
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Errorf("expected schema error, got %v", err)
	}
}

func TestLoadConfig_SchemaRejectsUnknownKey(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", "caching:\n  foo: 1\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected schema error for unknown top-level key")
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeTempConfig(t, "config.toml", "x = 1")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults valid", func(*Config) {}, ""},
		{"zero memory entries", func(c *Config) { c.Cache.MaxMemoryEntries = 0 }, "max_memory_entries"},
		{"zero ttl", func(c *Config) { c.Cache.DefaultTTLSeconds = 0 }, "default_ttl_seconds"},
		{"zero max turns", func(c *Config) { c.Sessions.MaxTurns = 0 }, "max_turns"},
		{"zero idle timeout", func(c *Config) { c.Sessions.IdleTimeoutSeconds = 0 }, "idle_timeout_seconds"},
		{"bad log driver", func(c *Config) { c.Analysis.LogDriver = "mysql" }, "log_driver"},
		{"postgres without dsn", func(c *Config) { c.Analysis.LogDriver = "postgres" }, "log_dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
