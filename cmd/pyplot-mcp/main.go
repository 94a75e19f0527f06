package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configFlag string

// errExecFailed marks a run whose code failed or timed out. The report has
// already been printed, so main only sets the exit status.
var errExecFailed = errors.New("execution failed")

var rootCmd = &cobra.Command{
	Use:   "pyplot-mcp",
	Short: "pyplot-mcp - Python charting tool for MCP clients",
	Long: `pyplot-mcp is an MCP server exposing a single tool, run_python, that executes
Python code in a throwaway subprocess and returns printed output and matplotlib
charts as Markdown with inline images.

Without a subcommand the transport is chosen from the environment: HTTP_SERVER=true
serves streamable HTTP on $PORT (default 8000), anything else serves stdio.

Executed code runs with the same OS permissions as this process. The only
isolation is a separate process and a temporary working directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDefault,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./pyplot-mcp.yaml or ~/.pyplot-mcp/pyplot-mcp.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errExecFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
