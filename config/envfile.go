package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"

	"github.com/gaborage/mcpanel/logger"
)

// DefaultEnvFile is the YAML file copied into the process environment at startup.
const DefaultEnvFile = ".env.yaml"

// LoadEnvFile copies the top-level string values of a YAML file into the
// process environment. Variables that are already set win, non-string values
// are skipped, and a missing file is not an error. It returns the keys it set.
func LoadEnvFile(path string, log logger.Logger) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	values, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var set []string
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists {
			if log != nil {
				log.Info().Str("key", key).Msg("Environment variable already set, keeping existing value")
			}
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		if err := os.Setenv(key, s); err != nil {
			return set, fmt.Errorf("failed to set %s: %w", key, err)
		}
		set = append(set, key)
	}
	return set, nil
}
