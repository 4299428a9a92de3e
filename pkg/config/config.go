// Package config provides unified configuration for the strom subscriber.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (STROM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the strom subscriber.
type Config struct {
	Stream        StreamConfig        `yaml:"stream"`
	Auth          AuthConfig          `yaml:"auth"`
	Record        RecordConfig        `yaml:"record"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StreamConfig holds event source connection settings.
type StreamConfig struct {
	URL                   string            `yaml:"url"`                     // required
	Headers               map[string]string `yaml:"headers"`                 // optional extra request headers
	ResponseHeaderTimeout time.Duration     `yaml:"response_header_timeout"` // default: 30s
	BufferSize            int               `yaml:"buffer_size"`             // read buffer bytes, default: 8192
}

// AuthConfig holds upstream authentication settings.
type AuthConfig struct {
	Type      string    `yaml:"type"`       // "none", "token", or "jwt", default: "none"
	Token     string    `yaml:"token"`      // static bearer token for type=token
	TokenFile string    `yaml:"token_file"` // _file variant for token
	JWT       JWTConfig `yaml:"jwt"`
}

// JWTConfig holds self-signed JWT settings for type=jwt.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	Subject    string        `yaml:"subject"`
	Issuer     string        `yaml:"issuer"` // default: "strom"
	TTL        time.Duration `yaml:"ttl"`    // default: 5m
}

// RecordConfig holds event recording settings.
type RecordConfig struct {
	Type     string         `yaml:"type"`     // "none", "memory", or "postgres", default: "none"
	MaxSize  int            `yaml:"max_size"` // for memory recorder, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Port    int    `yaml:"port"`    // default: 9090
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Stream: StreamConfig{
			ResponseHeaderTimeout: 30 * time.Second,
			BufferSize:            8192,
		},
		Auth: AuthConfig{
			Type: "none",
			JWT: JWTConfig{
				Issuer: "strom",
				TTL:    5 * time.Minute,
			},
		},
		Record: RecordConfig{
			Type:    "none",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: false,
				Port:    9090,
				Path:    "/metrics",
			},
		},
	}
}
