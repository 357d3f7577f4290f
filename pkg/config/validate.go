package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
//
// Storage settings are not validated here; the pipeline reports them per
// request.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	if c.Transform.Timeout < 0 {
		errs = append(errs, fmt.Errorf("transform.timeout must not be negative, got %s", c.Transform.Timeout))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none":
		// valid
	case "function":
		if len(c.Auth.FunctionKeys) == 0 {
			errs = append(errs, fmt.Errorf("auth.function_keys must not be empty when auth.type is \"function\""))
		}
		for i, k := range c.Auth.FunctionKeys {
			if k.Key == "" && k.KeyFile == "" {
				errs = append(errs, fmt.Errorf("auth.function_keys[%d]: key or key_file is required", i))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"function\", got %q", c.Auth.Type))
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.path is required when metrics are enabled"))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
