// Package config provides unified configuration for the xsltfn function host.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (XSLTFN_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// Storage settings are special: the transformation pipeline reads them on
// every invocation through a [Source], so missing values fail individual
// requests rather than startup.
package config

import "time"

// Config holds all configuration for the function host.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Transform     TransformConfig     `yaml:"transform"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 0 (unbounded)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MiB
}

// StorageConfig holds fallbacks for the per-invocation storage settings.
// The environment variables StorageAccountConnString and ContainerName
// take precedence over these values.
type StorageConfig struct {
	ConnectionString     string `yaml:"connection_string"`
	ConnectionStringFile string `yaml:"connection_string_file"` // _file variant for connection_string
	ContainerName        string `yaml:"container_name"`

	// MigrateOnStart applies the postgres stylesheet schema at startup
	// when the connection string uses the postgres scheme.
	MigrateOnStart bool `yaml:"migrate_on_start"`
}

// TransformConfig holds transform engine settings.
type TransformConfig struct {
	// Timeout bounds a single stylesheet application. Zero leaves the
	// transform unbounded.
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig holds host-level authorization settings.
type AuthConfig struct {
	Type         string              `yaml:"type"` // "none" or "function", default: "none"
	FunctionKeys []FunctionKeyConfig `yaml:"function_keys"`
}

// FunctionKeyConfig describes a single function key entry.
type FunctionKeyConfig struct {
	Name    string `yaml:"name"`
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// TracingConfig holds OTLP trace export settings. Tracing is disabled when
// Endpoint is empty.
type TracingConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Insecure    bool              `yaml:"insecure"`
	ServiceName string            `yaml:"service_name"` // default: "xsltfn"
	Headers     map[string]string `yaml:"headers"`
}

// LoggingConfig holds log level and debug category settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
	Format string `yaml:"format"` // "text" (default) or "json"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Tracing: TracingConfig{
				ServiceName: "xsltfn",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
