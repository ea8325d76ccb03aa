package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/executor"
	"github.com/rashpile/pako-tasks/internal/explain"
	"github.com/rashpile/pako-tasks/internal/output"
	"github.com/rashpile/pako-tasks/internal/task"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

func runCmd(opts *options) *cobra.Command {
	var (
		learn   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run a project task in the terminal",
		Long: `Runs a task from tasks.json (or the default tasks) and streams its
combined output. The process exit code is passed through.

Ctrl-C kills the task and everything it started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			defs := task.LoadTasks(cfg.ProjectRoot)
			def, ok := findTask(defs, args[0])
			if !ok {
				return fmt.Errorf("unknown task %q (see 'pako-tasks tasks')", args[0])
			}

			explainer, err := cfg.Explainer()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Defaults.Timeout
			}
			learn = learn || cfg.Learning.Enabled

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			buf := output.NewBuffer(explainer, learn)
			code := runTask(ctx, executor.NewEngine(), def, cfg.ProjectRoot, buf, cmd.OutOrStdout())
			if code != 0 {
				return &pkgcmd.ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&learn, "explain", "e", false, "explain recognized errors after the run")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "kill the task after this long (0 = no limit)")

	return cmd
}

// findTask accepts either the task name or its command form ("run_python").
func findTask(defs []task.Definition, name string) (task.Definition, bool) {
	if def, ok := task.Find(defs, name); ok {
		return def, true
	}
	for _, d := range defs {
		if command.CommandName(d.Name) == name {
			return d, true
		}
	}
	return task.Definition{}, false
}

// runTask runs def, echoing output to w with failure lines highlighted,
// then prints a status line and any explanation.
func runTask(ctx context.Context, engine *executor.Engine, def task.Definition, dir string, buf *output.Buffer, w io.Writer) int {
	fmt.Fprintln(w, gray("$ "+def.Command))

	start := time.Now()
	code := engine.RunTask(ctx, def, dir, executor.Tee(buf.Append, highlightSink(w)))
	elapsed := time.Since(start).Round(100 * time.Millisecond)

	switch {
	case code == 0:
		fmt.Fprintln(w, gray(fmt.Sprintf("%s finished in %s", def.Name, elapsed)))
	case ctx.Err() == context.DeadlineExceeded:
		fmt.Fprintln(w, red(fmt.Sprintf("%s timed out after %s (exit %d)", def.Name, elapsed, code)))
	default:
		fmt.Fprintln(w, red(fmt.Sprintf("%s exited with code %d after %s", def.Name, code, elapsed)))
	}

	if res, ok := buf.Explanation(); ok {
		printExplanation(w, res)
	}
	return code
}

// highlightSink writes chunks to w, colouring engine failure lines.
func highlightSink(w io.Writer) executor.OutputSink {
	return func(chunk string) {
		if strings.HasPrefix(chunk, executor.ExecutionErrorPrefix) {
			chunk = red(strings.TrimSuffix(chunk, "\n")) + "\n"
		}
		io.WriteString(w, chunk)
	}
}

func printExplanation(w io.Writer, res explain.Result) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", yellow("💡"), bold(res.Title))
	fmt.Fprintln(w, res.Explanation)
	if res.Suggestion != "" {
		fmt.Fprintln(w, cyan(res.Suggestion))
	}
}
