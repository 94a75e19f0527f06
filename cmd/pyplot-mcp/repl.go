package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/pyplot-mcp/internal/sandbox"
)

var replArtifactsDir string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively run code blocks through the sandbox",
	Long: `Type Python code; an empty line runs the block. Every block runs in a fresh
subprocess and workspace, so nothing carries over between blocks.

Examples:
  pyplot-mcp repl
  pyplot-mcp repl --artifacts-dir ./charts`,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringVar(&replArtifactsDir, "artifacts-dir", "", "Write produced images to this directory")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	sb, err := newSandbox(cfg)
	if err != nil {
		return err
	}
	timeout := cfg.DefaultTimeout()

	fmt.Printf("pyplot-mcp %s | python: %s | timeout: %ds\n", version, sb.Policy.Python, timeout)
	fmt.Printf("Empty line runs the block. Type /help for commands, /quit to exit\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(os.TempDir(), "pyplot_mcp_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Ctrl+C while a block runs cancels that block only.
	var running runningBlock
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			running.cancel()
		}
	}()

	var block []string
	for {
		if len(block) == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt && len(block) > 0 {
				block = nil
				continue
			}
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		if len(block) == 0 && strings.HasPrefix(strings.TrimSpace(line), "/") {
			quit, err := handleReplCommand(strings.TrimSpace(line), &timeout)
			if err != nil {
				fmt.Printf("\033[31m%s\033[0m\n\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if strings.TrimSpace(line) != "" {
			block = append(block, line)
			continue
		}
		if len(block) == 0 {
			continue
		}

		code := strings.Join(block, "\n")
		block = nil

		runCtx := running.start(cmd.Context())
		result, err := sb.Exec(runCtx, sandbox.ExecOpts{Code: code, TimeoutSeconds: timeout})
		interrupted := runCtx.Err() != nil
		running.finish()

		if err != nil {
			if interrupted {
				fmt.Println("(interrupted)")
				continue
			}
			fmt.Printf("\033[31merror: %s\033[0m\n\n", err)
			continue
		}
		printTerminalResult(result)
	}
}

// runningBlock holds the cancel func of the block in flight. The signal
// goroutine cancels it while the read loop starts and finishes blocks.
type runningBlock struct {
	mu       sync.Mutex
	cancelFn context.CancelFunc
}

func (r *runningBlock) start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	r.cancelFn = cancel
	r.mu.Unlock()
	return ctx
}

func (r *runningBlock) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelFn != nil {
		r.cancelFn()
	}
}

func (r *runningBlock) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelFn != nil {
		r.cancelFn()
		r.cancelFn = nil
	}
}

func handleReplCommand(input string, timeout *int) (bool, error) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		fmt.Println("Goodbye!")
		return true, nil
	case "/timeout":
		if len(fields) < 2 {
			fmt.Printf("timeout: %ds\n\n", *timeout)
			return false, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid timeout %q", fields[1])
		}
		*timeout = n
		fmt.Printf("timeout set to %ds\n\n", n)
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help          - Show this help")
		fmt.Println("  /timeout [N]   - Show or set the timeout in seconds")
		fmt.Println("  /quit          - Exit")
		fmt.Println()
	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", input)
	}
	return false, nil
}

// printTerminalResult shows output without the base64 image payloads.
func printTerminalResult(result *sandbox.ExecResult) {
	if result.TimedOut {
		fmt.Printf("\033[31m%s\033[0m\n\n", result.Report())
		return
	}

	if s := strings.TrimSpace(result.Stdout); s != "" {
		fmt.Println(s)
	}
	if s := strings.TrimSpace(result.Stderr); s != "" {
		fmt.Printf("\033[31m%s\033[0m\n", s)
	}
	for _, a := range result.Artifacts {
		fmt.Printf("  \033[33m[chart] %s (%d bytes)\033[0m\n", a.Name, len(a.Data))
	}
	if replArtifactsDir != "" && len(result.Artifacts) > 0 {
		if err := writeArtifacts(replArtifactsDir, result.Artifacts); err != nil {
			fmt.Printf("\033[31merror: %s\033[0m\n", err)
		} else {
			fmt.Printf("  \033[90msaved to %s\033[0m\n", replArtifactsDir)
		}
	}
	if !result.OK() {
		fmt.Printf("\033[90mexit code: %d\033[0m\n", result.ExitCode)
	}
	fmt.Println()
}
