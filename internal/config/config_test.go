package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("HTTP_SERVER", "")
	os.Unsetenv("PORT")
	os.Unsetenv("HTTP_SERVER")
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.False(t, cfg.UseHTTP())
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, sandbox.DefaultTimeoutSeconds, cfg.DefaultTimeout())

	p := cfg.Policy()
	assert.Equal(t, sandbox.DefaultPolicy(), p)
}

func TestLoadEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PORT", "9001")
	t.Setenv("HTTP_SERVER", "TRUE")
	t.Setenv("PYPLOT_RUNNER_PYTHON", "/usr/bin/python3")
	t.Setenv("PYPLOT_PLOT_DPI", "96")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.UseHTTP())
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "/usr/bin/python3", cfg.Policy().Python)
	assert.Equal(t, 96, cfg.Policy().Plot.DPI)
}

func TestLoadHTTPServerNotTrue(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HTTP_SERVER", "yes")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.UseHTTP())
}

func TestLoadFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "pyplot-mcp.yaml")
	content := `
transport: http
server:
  port: 8123
runner:
  python: python3.12
  default_timeout: 30
  kill_grace: 5s
  artifact_patterns: ["*.png", "*.svg"]
  env:
    - OMP_NUM_THREADS=1
    - PYTHONHASHSEED=0
plot:
  dpi: 120
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.UseHTTP())
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, 30, cfg.DefaultTimeout())

	p := cfg.Policy()
	assert.Equal(t, "python3.12", p.Python)
	assert.Equal(t, 5*time.Second, p.KillGrace)
	assert.Equal(t, []string{"*.png", "*.svg"}, p.ArtifactPatterns)
	assert.Equal(t, map[string]string{"OMP_NUM_THREADS": "1", "PYTHONHASHSEED": "0"}, p.Env)
	assert.Equal(t, 120, p.Plot.DPI)
	assert.Equal(t, "Agg", p.Plot.Backend)

	assert.NotNil(t, cfg.Logger())
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    map[string]string
	}{
		{"empty", nil, nil},
		{"case preserved", []string{"OMP_NUM_THREADS=1", "MixedCase=x"}, map[string]string{"OMP_NUM_THREADS": "1", "MixedCase": "x"}},
		{"split on first equals", []string{"OPTS=a=b"}, map[string]string{"OPTS": "a=b"}},
		{"no value", []string{"EMPTY"}, map[string]string{"EMPTY": ""}},
		{"missing key skipped", []string{"=oops", "OK=1"}, map[string]string{"OK": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseEnv(tt.entries))
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
