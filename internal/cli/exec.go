package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rashpile/pako-tasks/internal/executor"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

func execCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run a one-off command in the project root",
		Long: `Runs a command without a shell and prints its stdout, then its stderr
with each line prefixed "Error: ". Arguments are split on whitespace.

Examples:
  pako-tasks exec ls -la
  pako-tasks exec -- git status --short`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := executor.NewRunner().Execute(strings.Join(args, " "), cfg.ProjectRoot)

			w := cmd.OutOrStdout()
			if strings.HasPrefix(out, executor.FailurePrefix) {
				fmt.Fprintln(w, red(out))
				return &pkgcmd.ExitError{Code: 1}
			}

			for _, line := range strings.SplitAfter(out, "\n") {
				if strings.HasPrefix(line, executor.StderrPrefix) {
					line = red(strings.TrimSuffix(line, "\n")) + "\n"
				}
				fmt.Fprint(w, line)
			}
			return nil
		},
	}
}
