package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/mcpanel/logger"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.yaml")
	content := "MCPANEL_TEST_NEW: fresh\nMCPANEL_TEST_KEEP: from-file\nMCPANEL_TEST_INT: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("MCPANEL_TEST_KEEP", "from-env")
	// registers cleanup for the variable LoadEnvFile will create
	t.Setenv("MCPANEL_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("MCPANEL_TEST_NEW"))

	set, err := LoadEnvFile(path, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"MCPANEL_TEST_NEW"}, set)
	assert.Equal(t, "fresh", os.Getenv("MCPANEL_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("MCPANEL_TEST_KEEP"))
	_, intSet := os.LookupEnv("MCPANEL_TEST_INT")
	assert.False(t, intSet, "non-string values are skipped")
}

func TestLoadEnvFileMissing(t *testing.T) {
	set, err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.NoError(t, err)
	assert.Empty(t, set)
}

func TestLoadEnvFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("KEY: [unclosed"), 0o600))

	_, err := LoadEnvFile(path, nil)
	assert.Error(t, err)
}
