package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiktol/apcr-dva/internal/publish"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConfigFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := configFilePath()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join(".ecr-publish", "config.yaml")), path)
	assert.True(t, strings.HasPrefix(path, home), path)
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	want := publish.Overrides{Region: "eu-west-1", RepositoryName: "r1", Platform: "linux/amd64"}
	require.NoError(t, saveConfigFile("", want))

	got, err := loadConfigFile("", false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("missing default file is an empty layer", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		got, err := loadConfigFile("", false)
		require.NoError(t, err)
		assert.Equal(t, publish.Overrides{}, got)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := loadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), true)
		assert.ErrorIs(t, err, publish.ErrConfigResolution)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "region: [unterminated\n")
		_, err := loadConfigFile(path, true)
		assert.ErrorIs(t, err, publish.ErrConfigResolution)
	})
}

func TestReadEnvFile(t *testing.T) {
	t.Run("parses without touching the process environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		writeFile(t, path, "IMAGE_TAG=from-dotenv\n")
		t.Setenv("IMAGE_TAG", "")

		env, err := readEnvFile(path, true)
		require.NoError(t, err)
		assert.Equal(t, "from-dotenv", env.Getenv("IMAGE_TAG"))
		assert.Equal(t, "", os.Getenv("IMAGE_TAG"))
	})

	t.Run("missing default file", func(t *testing.T) {
		env, err := readEnvFile(filepath.Join(t.TempDir(), ".env"), false)
		require.NoError(t, err)
		assert.Nil(t, env)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := readEnvFile(filepath.Join(t.TempDir(), ".env"), true)
		assert.ErrorIs(t, err, publish.ErrConfigResolution)
	})
}

func TestResolveOverridesPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	envPath := filepath.Join(dir, ".env")
	writeFile(t, configPath, "region: file-region\nrepositoryName: file-repo\nimageTag: file-tag\nappName: file-app\nplatform: linux/arm64\n")
	writeFile(t, envPath, "AWS_REGION=dotenv-region\nECR_REPOSITORY_NAME=dotenv-repo\nIMAGE_TAG=dotenv-tag\n")

	opts := runOptions{
		configPath:      configPath,
		envFile:         envPath,
		configExplicit:  true,
		envFileExplicit: true,
		overrides:       publish.Overrides{ImageTag: "flag-tag"},
	}
	env := publish.MapEnv{"ECR_REPOSITORY_NAME": "env-repo", "IMAGE_TAG": "env-tag"}

	got, err := resolveOverrides(opts, env)
	require.NoError(t, err)

	assert.Equal(t, "dotenv-region", got.Region, "dotenv overrides file")
	assert.Equal(t, "env-repo", got.RepositoryName, "process env overrides dotenv")
	assert.Equal(t, "flag-tag", got.ImageTag, "flags override everything")
	assert.Equal(t, "file-app", got.AppName, "file fills the gaps")
	assert.Equal(t, "linux/arm64", got.Platform)
}
