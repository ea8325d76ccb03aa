// Package cli wires the task engine into the pako-tasks command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rashpile/pako-tasks/internal/config"
	"github.com/rashpile/pako-tasks/internal/version"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath  string
	projectRoot string
	verbose     bool
}

// loadConfig reads the config file, or uses defaults when it is missing.
// --project overrides project_root.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.projectRoot != "" {
		cfg.ProjectRoot = o.projectRoot
	}
	return cfg, nil
}

// RootCmd creates the root command with all subcommands attached.
func RootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pako-tasks",
		Short: "Run project tasks from Telegram or the terminal",
		Long: `pako-tasks runs the tasks defined in a project's tasks.json one at a time,
streams their output, and explains common build errors.

Examples:
  pako-tasks serve                 # Start the Telegram bot
  pako-tasks run build             # Run a task in the terminal
  pako-tasks exec ls -la           # Run a one-off command
  pako-tasks tasks init            # Write the default tasks.json`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to configuration file")
	cmd.PersistentFlags().StringVarP(&opts.projectRoot, "project", "p", "", "project root (overrides project_root)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.SetVersionTemplate(fmt.Sprintf("%s\n", version.String()))

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(execCmd(opts))
	cmd.AddCommand(tasksCmd(opts))
	cmd.AddCommand(explainCmd(opts))

	return cmd
}
