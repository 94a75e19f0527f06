package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/pyplot-mcp/internal/tools"
)

var (
	callURL     string
	callBinary  string
	callTimeout int
)

var callCmd = &cobra.Command{
	Use:   "call [file]",
	Short: "Send a script to a running pyplot-mcp server",
	Long: `Call run_python on another pyplot-mcp server, either over streamable HTTP or by
launching a server binary over stdio, and print the text it returns.

Examples:
  pyplot-mcp call plot.py --url http://localhost:8000/mcp
  echo 'print(42)' | pyplot-mcp call --binary ./bin/pyplot-mcp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callURL, "url", "", "Streamable HTTP endpoint (e.g. http://localhost:8000/mcp)")
	callCmd.Flags().StringVar(&callBinary, "binary", "", "Server binary to launch over stdio")
	callCmd.Flags().IntVar(&callTimeout, "timeout", 0, "timeout_s to send (default: server default)")
	callCmd.MarkFlagsMutuallyExclusive("url", "binary")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var c *tools.Client
	switch {
	case callURL != "":
		c, err = tools.NewHTTPClient(ctx, callURL)
	case callBinary != "":
		c, err = tools.NewStdioClient(ctx, callBinary, os.Environ(), "stdio")
	default:
		return fmt.Errorf("one of --url or --binary is required")
	}
	if err != nil {
		return err
	}
	defer c.Close()

	text, isError, err := c.RunPython(ctx, code, callTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	if isError {
		return errExecFailed
	}
	return nil
}
