package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
)

var (
	execTimeout      int
	execOutput       string
	execArtifactsDir string
)

var execCmd = &cobra.Command{
	Use:   "exec [file]",
	Short: "Run a Python file through the sandbox and print the report",
	Long: `Run a Python script exactly the way run_python would and print the result.
Reads the script from stdin when no file (or "-") is given.

Output formats:
  markdown  the report returned to MCP clients (default)
  json      {"ok", "exit_code", "timed_out", "duration_ms", "artifacts", "render_markdown"}
  yaml      same fields as json

Examples:
  pyplot-mcp exec plot.py
  echo 'print(1 + 1)' | pyplot-mcp exec --output json
  pyplot-mcp exec plot.py --timeout 30 --artifacts-dir ./charts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().IntVar(&execTimeout, "timeout", 0, "Timeout in seconds (default from config)")
	execCmd.Flags().StringVarP(&execOutput, "output", "o", "markdown", "Output format: markdown, json, yaml")
	execCmd.Flags().StringVar(&execArtifactsDir, "artifacts-dir", "", "Also write produced images to this directory")
	rootCmd.AddCommand(execCmd)
}

type artifactSummary struct {
	Name     string `json:"name" yaml:"name"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
}

type execSummary struct {
	OK             bool              `json:"ok" yaml:"ok"`
	ExitCode       int               `json:"exit_code" yaml:"exit_code"`
	TimedOut       bool              `json:"timed_out" yaml:"timed_out"`
	DurationMs     int64             `json:"duration_ms" yaml:"duration_ms"`
	Artifacts      []artifactSummary `json:"artifacts" yaml:"artifacts"`
	RenderMarkdown string            `json:"render_markdown" yaml:"render_markdown"`
}

func runExec(cmd *cobra.Command, args []string) error {
	if err := validateOutput(execOutput); err != nil {
		return err
	}

	cfg, _, err := setup()
	if err != nil {
		return err
	}

	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}

	sb, err := newSandbox(cfg)
	if err != nil {
		return err
	}

	timeout := cfg.DefaultTimeout()
	if cmd.Flags().Changed("timeout") {
		timeout = execTimeout
	}

	result, err := sb.Exec(cmd.Context(), sandbox.ExecOpts{Code: code, TimeoutSeconds: timeout})
	if err != nil {
		return err
	}

	if execArtifactsDir != "" {
		if err := writeArtifacts(execArtifactsDir, result.Artifacts); err != nil {
			return err
		}
	}

	if err := printResult(cmd.OutOrStdout(), execOutput, result); err != nil {
		return err
	}
	if !result.OK() {
		return errExecFailed
	}
	return nil
}

func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func summarize(result *sandbox.ExecResult) execSummary {
	s := execSummary{
		OK:             result.OK(),
		ExitCode:       result.ExitCode,
		TimedOut:       result.TimedOut,
		DurationMs:     result.Duration.Milliseconds(),
		Artifacts:      []artifactSummary{},
		RenderMarkdown: result.Report(),
	}
	for _, a := range result.Artifacts {
		s.Artifacts = append(s.Artifacts, artifactSummary{Name: a.Name, MIMEType: a.MIMEType, Bytes: len(a.Data)})
	}
	return s
}

func validateOutput(format string) error {
	switch format {
	case "markdown", "md", "", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want markdown, json or yaml)", format)
}

func printResult(w io.Writer, format string, result *sandbox.ExecResult) error {
	if err := validateOutput(format); err != nil {
		return err
	}
	switch format {
	case "markdown", "md", "":
		_, err := fmt.Fprintln(w, result.Report())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summarize(result))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summarize(result)); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}

func writeArtifacts(dir string, artifacts []sandbox.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts dir: %w", err)
	}
	for _, a := range artifacts {
		// Names come from the workspace listing, never from a path.
		path := filepath.Join(dir, filepath.Base(a.Name))
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
