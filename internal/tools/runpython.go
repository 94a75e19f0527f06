package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/michaelbrown/pyplot-mcp/internal/metrics"
	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
)

// ToolName is the single tool exposed by the server.
const ToolName = "run_python"

// ServerName identifies the MCP server to clients.
const ServerName = "pyplot-mcp"

// RunPythonTool returns the MCP declaration for run_python.
func RunPythonTool(defaultTimeout int) mcp.Tool {
	return mcp.Tool{
		Name: ToolName,
		Description: "Execute Python code and return its output and matplotlib charts. " +
			"plt.show() saves the current figure; every PNG left in the working directory " +
			"is returned as an inline base64 image.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python code to execute",
				},
				"timeout_s": map[string]any{
					"type":        "integer",
					"description": fmt.Sprintf("Timeout in seconds (default %d)", defaultTimeout),
					"default":     defaultTimeout,
				},
			},
			Required: []string{"code"},
		},
	}
}

// RunPython handles run_python calls by executing them in a sandbox.
type RunPython struct {
	sandbox        sandbox.Sandbox
	defaultTimeout int
	logger         *slog.Logger
}

// NewRunPython creates the handler. A nil logger discards log output.
func NewRunPython(sb sandbox.Sandbox, defaultTimeout int, logger *slog.Logger) *RunPython {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RunPython{sandbox: sb, defaultTimeout: defaultTimeout, logger: logger}
}

// NewServer builds an MCP server exposing run_python.
func NewServer(h *RunPython, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Python code execution with matplotlib charting"),
		server.WithRecovery(),
	)
	s.AddTool(RunPythonTool(h.defaultTimeout), h.Handle)
	return s
}

func (h *RunPython) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	code, ok := args["code"].(string)
	if !ok {
		return errResult("error: 'code' argument must be a string"), nil
	}

	timeout := h.defaultTimeout
	if raw, present := args["timeout_s"]; present && raw != nil {
		n, err := toInt(raw)
		if err != nil {
			return errResult(fmt.Sprintf("error: 'timeout_s' %v", err)), nil
		}
		timeout = n
	}

	log := h.logger.With("execution_id", uuid.New().String())
	log.Info("execute request", "code_bytes", len(code), "timeout_s", timeout)

	metrics.ExecutionsActive.Inc()
	defer metrics.ExecutionsActive.Dec()

	start := time.Now()
	result, err := h.sandbox.Exec(ctx, sandbox.ExecOpts{Code: code, TimeoutSeconds: timeout})
	if err != nil {
		metrics.ObserveExecution(metrics.StatusInternal, time.Since(start), 0)
		log.Error("execute failed", "error", err)
		return nil, fmt.Errorf("run_python: %w", err)
	}

	status := statusOf(result)
	metrics.ObserveExecution(status, result.Duration, len(result.Artifacts))
	log.Info("execute complete",
		"status", status,
		"exit_code", result.ExitCode,
		"duration_ms", result.Duration.Milliseconds(),
		"stdout_len", len(result.Stdout),
		"stderr_len", len(result.Stderr),
		"artifacts", len(result.Artifacts),
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: result.Report()}},
		IsError: !result.OK(),
	}, nil
}

func statusOf(r *sandbox.ExecResult) string {
	switch {
	case r.TimedOut:
		return metrics.StatusTimeout
	case r.ExitCode != 0:
		return metrics.StatusError
	default:
		return metrics.StatusOK
	}
}

// toInt accepts the shapes a JSON integer can take after decoding.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("must be an integer, got %v", n)
		}
		if n > math.MaxInt32*1e9 || n < math.MinInt32*1e9 {
			return 0, fmt.Errorf("out of range: %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %s", n)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
