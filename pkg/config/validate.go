package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// stream.url is required.
	if c.Stream.URL == "" {
		errs = append(errs, fmt.Errorf("stream.url is required"))
	}

	// stream.buffer_size must be positive.
	if c.Stream.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("stream.buffer_size must be > 0, got %d", c.Stream.BufferSize))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "token", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"token\", or \"jwt\", got %q", c.Auth.Type))
	}

	// If auth.type is "token", a token must be supplied.
	if c.Auth.Type == "token" {
		if c.Auth.Token == "" && c.Auth.TokenFile == "" {
			errs = append(errs, fmt.Errorf("auth.token or auth.token_file is required when auth.type is \"token\""))
		}
	}

	// If auth.type is "jwt", secret and subject must be supplied.
	if c.Auth.Type == "jwt" {
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
		}
		if c.Auth.JWT.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.jwt.subject is required when auth.type is \"jwt\""))
		}
	}

	// record.type must be a known value.
	switch c.Record.Type {
	case "none", "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("record.type must be \"none\", \"memory\", or \"postgres\", got %q", c.Record.Type))
	}

	// If record.type is "postgres", DSN or DSNFile must be set.
	if c.Record.Type == "postgres" {
		if c.Record.Postgres.DSN == "" && c.Record.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("record.postgres.dsn or record.postgres.dsn_file is required when record.type is \"postgres\""))
		}
	}

	// Metrics port must be valid when metrics are enabled.
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Port <= 0 {
		errs = append(errs, fmt.Errorf("observability.metrics.port must be > 0, got %d", c.Observability.Metrics.Port))
	}

	return errors.Join(errs...)
}
