package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	tempDir := t.TempDir()
	cfg, err := Load(filepath.Join(tempDir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "name", cfg.Target.Field)
	assert.Equal(t, 3, cfg.Oracle.Retries)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")
	content := `
target:
  url: http://example.test/vuln
  field: username
oracle:
  retries: 5
  vote_threshold: 3
logging:
  level: debug
  debug_mode: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/vuln", cfg.Target.URL)
	assert.Equal(t, "username", cfg.Target.Field)
	assert.Equal(t, 5, cfg.Oracle.Retries)
	assert.Equal(t, 3, cfg.Oracle.VoteThresh)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Target.URL = "http://round.trip/form"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("config changed across save/load (-saved +loaded):\n%s", diff)
	}
}

func TestOracleTimeoutFallsBackOnUnparseableValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracle.Timeout = "not-a-duration"
	assert.Equal(t, 10e9, float64(cfg.OracleTimeout()))
}
