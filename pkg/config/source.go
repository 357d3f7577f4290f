package config

import "os"

// Keys the transformation pipeline looks up on every invocation.
const (
	KeyConnectionString = "StorageAccountConnString"
	KeyContainerName    = "ContainerName"
)

// Source supplies per-invocation settings to the pipeline. Lookup returns
// the empty string when the key is unset.
type Source interface {
	Lookup(key string) string
}

// MapSource is a fixed set of settings, typically used by tests.
type MapSource map[string]string

// Lookup returns the value stored under key.
func (m MapSource) Lookup(key string) string {
	return m[key]
}

// EnvSource reads settings from the process environment on each call,
// falling back to values loaded from the config file.
type EnvSource struct {
	fallback map[string]string
}

// NewEnvSource creates an EnvSource whose fallbacks come from cfg. A nil
// cfg yields a source backed by the environment only.
func NewEnvSource(cfg *Config) *EnvSource {
	s := &EnvSource{fallback: map[string]string{}}
	if cfg != nil {
		s.fallback[KeyConnectionString] = cfg.Storage.ConnectionString
		s.fallback[KeyContainerName] = cfg.Storage.ContainerName
	}
	return s
}

// Lookup returns the environment value for key, or the config fallback.
func (s *EnvSource) Lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.fallback[key]
}
