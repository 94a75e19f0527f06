package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/pyplot-mcp/internal/config"
	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
	"github.com/michaelbrown/pyplot-mcp/internal/server"
	"github.com/michaelbrown/pyplot-mcp/internal/tools"
)

var portFlag int

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve run_python over MCP stdio",
	Long: `Serve the run_python tool over MCP stdio framing. This is what MCP clients
launch as a subprocess.

Examples:
  pyplot-mcp stdio
  pyplot-mcp stdio --config ./pyplot-mcp.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		return serveStdio(cfg, logger)
	},
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve run_python over MCP streamable HTTP",
	Long: `Start the HTTP server. The MCP endpoint is /mcp; /healthz and /metrics are
served alongside it.

Examples:
  pyplot-mcp http
  pyplot-mcp http --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if portFlag > 0 {
			cfg.Server.Port = portFlag
		}
		return serveHTTP(cfg, logger)
	},
}

func init() {
	httpCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config and $PORT)")
	rootCmd.AddCommand(stdioCmd, httpCmd)
}

func runDefault(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if cfg.UseHTTP() {
		return serveHTTP(cfg, logger)
	}
	return serveStdio(cfg, logger)
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newSandbox(cfg *config.Config) (*sandbox.ProcessSandbox, error) {
	sb, err := sandbox.NewProcessSandbox(cfg.Policy())
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	return sb, nil
}

func newMCPServer(cfg *config.Config, logger *slog.Logger) (*mcpserver.MCPServer, error) {
	sb, err := newSandbox(cfg)
	if err != nil {
		return nil, err
	}
	h := tools.NewRunPython(sb, cfg.DefaultTimeout(), logger)
	return tools.NewServer(h, version), nil
}

func serveStdio(cfg *config.Config, logger *slog.Logger) error {
	s, err := newMCPServer(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("serving MCP over stdio", "python", cfg.Policy().Python)
	return mcpserver.ServeStdio(s,
		mcpserver.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)
}

func serveHTTP(cfg *config.Config, logger *slog.Logger) error {
	s, err := newMCPServer(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg, s, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start()
}
