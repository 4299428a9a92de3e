package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, STROM_CONFIG env, ./config.yaml, /etc/strom/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. STROM_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/strom/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check STROM_CONFIG env var.
	if envPath := os.Getenv("STROM_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/strom/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STROM_URL"); v != "" {
		cfg.Stream.URL = v
	}
	if v := os.Getenv("STROM_BUFFER_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Stream.BufferSize = size
		}
	}
	if v := os.Getenv("STROM_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("STROM_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("STROM_JWT_SECRET"); v != "" {
		cfg.Auth.JWT.Secret = v
	}
	if v := os.Getenv("STROM_JWT_SUBJECT"); v != "" {
		cfg.Auth.JWT.Subject = v
	}
	if v := os.Getenv("STROM_JWT_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWT.TTL = ttl
		}
	}
	if v := os.Getenv("STROM_RECORD"); v != "" {
		cfg.Record.Type = v
	}
	if v := os.Getenv("STROM_RECORD_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Record.MaxSize = size
		}
	}
	if v := os.Getenv("STROM_POSTGRES_DSN"); v != "" {
		cfg.Record.Postgres.DSN = v
	}
	if v := os.Getenv("STROM_METRICS"); v != "" {
		cfg.Observability.Metrics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("STROM_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Observability.Metrics.Port = port
		}
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.token_file -> auth.token
	if cfg.Auth.TokenFile != "" && cfg.Auth.Token == "" {
		val, err := readSecretFile(cfg.Auth.TokenFile)
		if err != nil {
			return fmt.Errorf("auth.token_file: %w", err)
		}
		cfg.Auth.Token = val
	}

	// auth.jwt.secret_file -> auth.jwt.secret
	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	// record.postgres.dsn_file -> record.postgres.dsn
	if cfg.Record.Postgres.DSNFile != "" && cfg.Record.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Record.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("record.postgres.dsn_file: %w", err)
		}
		cfg.Record.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
