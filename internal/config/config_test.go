package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("CROSS_ACCOUNT_ROLE_NAME", "")
	t.Setenv("BEDROCK_LOG_GROUP_NAME", "")
	t.Setenv("MCP_TRANSPORT", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoleName, cfg.CrossAccountRoleName)
	assert.Equal(t, DefaultLogGroup, cfg.LogGroupName)
	assert.Equal(t, DefaultRegion, cfg.Region)
	assert.Equal(t, "stdio", cfg.Transport)
}

func TestFromViperEnvOverrides(t *testing.T) {
	t.Setenv("CROSS_ACCOUNT_ROLE_NAME", "CostReader")
	t.Setenv("BEDROCK_LOG_GROUP_NAME", "/custom/bedrock")
	t.Setenv("MCP_TRANSPORT", "SSE")

	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "CostReader", cfg.CrossAccountRoleName)
	assert.Equal(t, "/custom/bedrock", cfg.LogGroupName)
	assert.Equal(t, "sse", cfg.Transport)
}

func TestValidate(t *testing.T) {
	t.Run("rejects unknown transport", func(t *testing.T) {
		cfg := Default()
		cfg.Transport = "carrier-pigeon"
		assert.ErrorContains(t, cfg.Validate(), "unsupported mcp_transport")
	})

	t.Run("rejects empty role", func(t *testing.T) {
		cfg := Default()
		cfg.CrossAccountRoleName = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
	})

	t.Run("loads values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("SPENDWISE_TEST_KEY=from-dotenv\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("SPENDWISE_TEST_KEY") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-dotenv", os.Getenv("SPENDWISE_TEST_KEY"))
	})
}
