package config

import (
	"errors"
	"strings"
)

const errMsgConfigNotInitialized = "configuration not initialized"

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt retrieves an int value from the configuration or the provided default.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	if !c.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Int(key)
}

// GetBool retrieves a bool value from the configuration or the provided default.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetRequiredString retrieves a required string value. The error is a
// *ConfigError naming the environment variable that would set it.
func (c *Config) GetRequiredString(key string) (string, error) {
	val := ""
	if c.Exists(key) {
		val = strings.TrimSpace(c.k.String(key))
	}
	if val == "" {
		return "", NewMissingFieldError(key)
	}
	return val, nil
}

// Unmarshal unmarshals a configuration section into the provided struct.
func (c *Config) Unmarshal(key string, out any) error {
	if c == nil || c.k == nil {
		return errors.New(errMsgConfigNotInitialized)
	}
	return c.k.Unmarshal(key, out)
}

// Exists checks if a configuration key exists.
func (c *Config) Exists(key string) bool {
	if c == nil || c.k == nil {
		return false
	}
	return c.k.Exists(key)
}

// EnvVarName is the inverse of the environment key transform:
// "pterodactyl.api.url" becomes "PTERODACTYL_API_URL".
func EnvVarName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func optionalDefault[T any](zero T, overrides ...T) T {
	if len(overrides) > 0 {
		return overrides[0]
	}
	return zero
}
