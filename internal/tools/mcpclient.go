package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client wraps an mcp-go client connected to a run_python server.
type Client struct {
	name   string
	client *client.Client
	tools  []mcp.Tool
}

// NewStdioClient launches a server binary speaking MCP over stdio.
func NewStdioClient(ctx context.Context, binary string, env []string, args ...string) (*Client, error) {
	c, err := client.NewStdioMCPClient(binary, env, args...)
	if err != nil {
		return nil, fmt.Errorf("starting MCP server %s: %w", binary, err)
	}
	return initialize(ctx, binary, c)
}

// NewHTTPClient connects to a streamable HTTP endpoint such as http://host:8000/mcp.
func NewHTTPClient(ctx context.Context, url string) (*Client, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client for %s: %w", url, err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return initialize(ctx, url, c)
}

// NewInProcessClient connects directly to a server in the same process.
func NewInProcessClient(ctx context.Context, s *server.MCPServer) (*Client, error) {
	c, err := client.NewInProcessClient(s)
	if err != nil {
		return nil, fmt.Errorf("creating in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("starting in-process client: %w", err)
	}
	return initialize(ctx, "in-process", c)
}

func initialize(ctx context.Context, name string, c *client.Client) (*Client, error) {
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    ServerName + "-client",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP server %s: %w", name, err)
	}

	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools from %s: %w", name, err)
	}

	return &Client{name: name, client: c, tools: result.Tools}, nil
}

// ToolNames returns the names of all tools on the server.
func (mc *Client) ToolNames() []string {
	names := make([]string, len(mc.tools))
	for i, t := range mc.tools {
		names[i] = t.Name
	}
	return names
}

// CallTool invokes a tool and returns its text content and error flag.
func (mc *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	result, err := mc.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("calling tool %s on %s: %w", name, mc.name, err)
	}

	var parts []string
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n"), result.IsError, nil
}

// RunPython calls run_python. A zero timeout leaves timeout_s unset so the
// server default applies.
func (mc *Client) RunPython(ctx context.Context, code string, timeoutS int) (string, bool, error) {
	args := map[string]any{"code": code}
	if timeoutS != 0 {
		args["timeout_s"] = timeoutS
	}
	return mc.CallTool(ctx, ToolName, args)
}

// Close shuts down the connection, and the server subprocess for stdio clients.
func (mc *Client) Close() error {
	return mc.client.Close()
}
