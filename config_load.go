package tubelens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON Schema every config document must satisfy before
// it is decoded into Config. It catches type mistakes (a string where a
// number belongs) earlier and with better messages than the decoder would.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "server": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "addr": {"type": "string"}
      }
    },
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "redis_addr": {"type": "string"},
        "file_dir": {"type": "string"},
        "default_ttl_seconds": {"type": "integer", "minimum": 1},
        "max_memory_entries": {"type": "integer", "minimum": 1}
      }
    },
    "sessions": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_turns": {"type": "integer", "minimum": 1},
        "idle_timeout_seconds": {"type": "integer", "minimum": 1},
        "cleanup_interval_seconds": {"type": "integer", "minimum": 1}
      }
    },
    "analysis": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "default_model": {"type": "string"},
        "log_driver": {"type": "string", "enum": ["sqlite", "postgres", "off"]},
        "log_dsn": {"type": "string"}
      }
    }
  }
}`

var compiledConfigSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// LoadConfig reads and parses a config file from the given path, applying
// defaults for every omitted option. Supported formats: JSON (.json),
// YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw any
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	// Round-trip through JSON so the schema validator sees JSON-native types
	// regardless of the source format.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("normalizing config: %w", err)
	}
	if err := compiledConfigSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig validates a Config for correctness beyond what the schema
// can express.
func ValidateConfig(cfg Config) error {
	if cfg.Cache.MaxMemoryEntries <= 0 {
		return fmt.Errorf("cache.max_memory_entries must be positive")
	}
	if cfg.Cache.DefaultTTLSeconds <= 0 {
		return fmt.Errorf("cache.default_ttl_seconds must be positive")
	}
	if cfg.Sessions.MaxTurns <= 0 {
		return fmt.Errorf("sessions.max_turns must be positive")
	}
	if cfg.Sessions.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("sessions.idle_timeout_seconds must be positive")
	}

	switch cfg.Analysis.LogDriver {
	case "", "sqlite", "postgres", "off":
	default:
		return fmt.Errorf("unknown analysis.log_driver: %q", cfg.Analysis.LogDriver)
	}
	if cfg.Analysis.LogDriver == "postgres" && cfg.Analysis.LogDSN == "" {
		return fmt.Errorf("analysis.log_dsn is required for the postgres log driver")
	}

	return nil
}
