package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelbrown/pyplot-mcp/internal/config"
	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
	"github.com/michaelbrown/pyplot-mcp/internal/tools"
)

type stubSandbox struct {
	result *sandbox.ExecResult
}

func (s stubSandbox) Exec(ctx context.Context, opts sandbox.ExecOpts) (*sandbox.ExecResult, error) {
	return s.result, nil
}

func testServer(t *testing.T, result *sandbox.ExecResult) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Runner: config.RunnerConfig{Python: "python3", DefaultTimeout: 12},
	}
	logger := slog.New(slog.DiscardHandler)
	h := tools.NewRunPython(stubSandbox{result: result}, cfg.DefaultTimeout(), logger)
	srv := New(cfg, tools.NewServer(h, "test"), logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := testServer(t, &sandbox.ExecResult{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "python3", body.Python)
	assert.Equal(t, 12, body.DefaultTimeout)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := testServer(t, &sandbox.ExecResult{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pyplot_executions_active")
}

func TestStreamableHTTPRoundTrip(t *testing.T) {
	ts := testServer(t, &sandbox.ExecResult{Stdout: "from http\n"})
	ctx := context.Background()

	c, err := tools.NewHTTPClient(ctx, ts.URL+MCPPath)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{tools.ToolName}, c.ToolNames())

	text, isErr, err := c.RunPython(ctx, `print("from http")`, 0)
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.Equal(t, "**stdout:**\n```\nfrom http\n```", text)
}

func TestUnknownRoute(t *testing.T) {
	ts := testServer(t, &sandbox.ExecResult{})

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
