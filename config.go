// Package tubelens is a YouTube analytics assistant: it loads channel
// statistics from CSV, asks an LLM backend for SEO recommendations, keyword
// trends, and competitor-gap analysis, and remembers the conversation per
// session. The Analyzer in this package orchestrates those pieces; the
// cache, session store, and backends live in their own packages.
package tubelens

import "time"

// Config holds the configuration for the assistant.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `json:"server" yaml:"server"`
	// Cache configures the tiered analysis cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`
	// Sessions configures the conversation memory.
	Sessions SessionsConfig `json:"sessions" yaml:"sessions"`
	// Analysis configures the recommendation pipeline.
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// CacheConfig holds the tier-chain options. Empty RedisAddr disables the
// Redis tier; empty FileDir disables the file tier.
type CacheConfig struct {
	RedisAddr         string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	FileDir           string `json:"file_dir,omitempty" yaml:"file_dir,omitempty"`
	DefaultTTLSeconds int    `json:"default_ttl_seconds,omitempty" yaml:"default_ttl_seconds,omitempty"`
	MaxMemoryEntries  int    `json:"max_memory_entries,omitempty" yaml:"max_memory_entries,omitempty"`
}

// SessionsConfig holds the conversation-memory options.
type SessionsConfig struct {
	MaxTurns               int `json:"max_turns,omitempty" yaml:"max_turns,omitempty"`
	IdleTimeoutSeconds     int `json:"idle_timeout_seconds,omitempty" yaml:"idle_timeout_seconds,omitempty"`
	CleanupIntervalSeconds int `json:"cleanup_interval_seconds,omitempty" yaml:"cleanup_interval_seconds,omitempty"`
}

// AnalysisConfig holds the recommendation-pipeline options. LogDriver is one
// of "sqlite" (default), "postgres", or "off".
type AnalysisConfig struct {
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	LogDriver    string `json:"log_driver,omitempty" yaml:"log_driver,omitempty"`
	LogDSN       string `json:"log_dsn,omitempty" yaml:"log_dsn,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache: CacheConfig{
			FileDir:           ".tubelens-cache",
			DefaultTTLSeconds: 3600,
			MaxMemoryEntries:  1000,
		},
		Sessions: SessionsConfig{
			MaxTurns:               10,
			IdleTimeoutSeconds:     1800,
			CleanupIntervalSeconds: 300,
		},
		Analysis: AnalysisConfig{
			DefaultModel: "gemini-2.0-flash",
			LogDriver:    "sqlite",
		},
	}
}

// DefaultTTL returns the cache default TTL as a duration.
func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// IdleTimeout returns the session idle timeout as a duration.
func (c SessionsConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// CleanupInterval returns the sweep interval as a duration.
func (c SessionsConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}
