package config

import (
	"encoding/json"
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
//  2. YAML config file (explicit path, XSLTFN_CONFIG env, ./config.yaml, /etc/xsltfn/config.yaml)
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

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

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
// 2. XSLTFN_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/xsltfn/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("XSLTFN_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/xsltfn/config.yaml",
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

// applyEnvOverrides maps environment variables to config fields. Malformed
// numeric or duration values are reported rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	// The functions custom handler contract hands the listen port to the
	// worker through this variable; an explicit XSLTFN_PORT still wins.
	if v := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FUNCTIONS_CUSTOMHANDLER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("XSLTFN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XSLTFN_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("XSLTFN_MAX_BODY_SIZE"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("XSLTFN_MAX_BODY_SIZE: %w", err)
		}
		cfg.Server.MaxBodySize = size
	}
	if v := os.Getenv("XSLTFN_TRANSFORM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("XSLTFN_TRANSFORM_TIMEOUT: %w", err)
		}
		cfg.Transform.Timeout = d
	}
	if v := os.Getenv("XSLTFN_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}

	// XSLTFN_FUNCTION_KEYS: JSON array of function key configs.
	if v := os.Getenv("XSLTFN_FUNCTION_KEYS"); v != "" {
		keys, err := parseFunctionKeysJSON(v)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			cfg.Auth.FunctionKeys = keys
		}
	}

	if v := os.Getenv("XSLTFN_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.Tracing.Endpoint = v
	}
	if v := os.Getenv("XSLTFN_OTLP_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("XSLTFN_OTLP_INSECURE: %w", err)
		}
		cfg.Observability.Tracing.Insecure = insecure
	}
	if v := os.Getenv("XSLTFN_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("XSLTFN_METRICS_ENABLED: %w", err)
		}
		cfg.Observability.Metrics.Enabled = enabled
	}
	if v := os.Getenv("XSLTFN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("XSLTFN_DEBUG"); v != "" {
		cfg.Logging.Debug = v
	}
	if v := os.Getenv("XSLTFN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("XSLTFN_MIGRATE_ON_START"); v != "" {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("XSLTFN_MIGRATE_ON_START: %w", err)
		}
		cfg.Storage.MigrateOnStart = migrate
	}

	return nil
}

// parseFunctionKeysJSON parses a JSON array of function key configurations.
func parseFunctionKeysJSON(jsonStr string) ([]FunctionKeyConfig, error) {
	var raw []struct {
		Name    string `json:"name"`
		Key     string `json:"key"`
		KeyFile string `json:"key_file"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("parsing function keys JSON: %w", err)
	}
	keys := make([]FunctionKeyConfig, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, FunctionKeyConfig{Name: k.Name, Key: k.Key, KeyFile: k.KeyFile})
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.connection_string_file -> storage.connection_string
	if cfg.Storage.ConnectionStringFile != "" && cfg.Storage.ConnectionString == "" {
		val, err := readSecretFile(cfg.Storage.ConnectionStringFile)
		if err != nil {
			return fmt.Errorf("storage.connection_string_file: %w", err)
		}
		cfg.Storage.ConnectionString = val
	}

	// auth.function_keys[*].key_file -> auth.function_keys[*].key
	for i := range cfg.Auth.FunctionKeys {
		if cfg.Auth.FunctionKeys[i].KeyFile != "" && cfg.Auth.FunctionKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.FunctionKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.function_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.FunctionKeys[i].Key = val
		}
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
