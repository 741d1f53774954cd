package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured marks an optional integration left without settings.
var ErrNotConfigured = errors.New("not configured")

// Category classifies a ConfigError.
type Category string

const (
	CategoryMissing       Category = "missing"
	CategoryInvalid       Category = "invalid"
	CategoryNotConfigured Category = "not_configured"
)

// ConfigError describes a bad or absent setting and how to fix it. Messages
// are lowercase so they compose with wrapping.
//
//nolint:revive // exported as config.ConfigError on purpose
type ConfigError struct {
	Category Category
	Key      string // dotted key, e.g. "pterodactyl.api.url"
	Message  string
	Hint     string   // what the operator should change
	Options  []string // accepted values, when the set is closed
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config_%s: %s", e.Category, e.Key)
	if e.Message != "" {
		b.WriteString(" " + e.Message)
	}
	if len(e.Options) > 0 {
		fmt.Fprintf(&b, " (one of %s)", strings.Join(e.Options, ", "))
	}
	if e.Hint != "" {
		b.WriteString(": " + e.Hint)
	}
	return b.String()
}

// Unwrap lets errors.Is(err, ErrNotConfigured) see through wrapping.
func (e *ConfigError) Unwrap() error {
	if e.Category == CategoryNotConfigured {
		return ErrNotConfigured
	}
	return nil
}

// sourceHint names both places a key can be set.
func sourceHint(key string) string {
	return fmt.Sprintf("set %s or %s in config.yaml", EnvVarName(key), key)
}

// NewMissingFieldError reports a required key with no value.
func NewMissingFieldError(key string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Key:      key,
		Message:  "is required",
		Hint:     sourceHint(key),
	}
}

// NewInvalidFieldError reports a value outside what key accepts. options may
// be nil when the accepted set is open.
func NewInvalidFieldError(key, message string, options []string) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Key:      key,
		Message:  message,
		Options:  options,
	}
}

// NewNotConfiguredError reports an optional feature switched off because key
// is empty.
func NewNotConfiguredError(feature, key string) *ConfigError {
	return &ConfigError{
		Category: CategoryNotConfigured,
		Key:      key,
		Message:  feature + " is disabled",
		Hint:     "to enable it " + sourceHint(key),
	}
}

// IsNotConfigured reports whether err, or anything it wraps, is a
// not-configured condition.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
