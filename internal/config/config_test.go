package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, found := vars[name]
		return v, found
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "0.0.0.0:35100", cfg.Addr())
	assert.Equal(t, 1000, cfg.MaxCacheSize)
	assert.Equal(t, 5, cfg.MaxRetry)
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vnaug.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
request_timeout: 5s
resources:
  data_dir: /srv/data
services:
  masked_lm_url: ""
`), 0644))

	cfg, err := LoadWithEnv(path, envOf(map[string]string{
		"VNAUG_PORT":        "9090",
		"VNAUG_DEBUG":       "true",
		"VNAUG_PHO_NLP_URL": "http://parser:1234/",
	}))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/srv/data", cfg.Resources.DataDir)
	assert.Equal(t, "./model", cfg.Resources.ModelDir)
	assert.Empty(t, cfg.Services.MaskedLMURL)
	assert.Equal(t, "http://parser:1234/", cfg.Services.DepParserURL)
}

func TestErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vnaug.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_field: 1\n"), 0644))
	_, err := LoadWithEnv(path, envOf(nil))
	require.Error(t, err)

	_, err = LoadWithEnv("", envOf(map[string]string{"VNAUG_PORT": "abc"}))
	require.Error(t, err)

	_, err = LoadWithEnv("", envOf(map[string]string{"VNAUG_MAX_CACHE_SIZE": "0"}))
	require.Error(t, err)

	_, err = LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), envOf(nil))
	require.Error(t, err)
}
