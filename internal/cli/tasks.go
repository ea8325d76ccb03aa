package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/task"
)

func tasksCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List project tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if _, err := task.Load(cfg.ProjectRoot); err != nil {
				fmt.Fprintln(w, gray(fmt.Sprintf("using default tasks (%v)", err)))
			}
			for _, d := range task.LoadTasks(cfg.ProjectRoot) {
				fmt.Fprintf(w, "%-16s %s\n", bold(d.Name), d.Command)
				if d.Description != "" {
					fmt.Fprintf(w, "%-16s %s\n", "", gray(d.Description))
				}
				if alias := command.CommandName(d.Name); alias != d.Name {
					fmt.Fprintf(w, "%-16s %s\n", "", gray("bot: /"+alias))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(tasksInitCmd(opts))
	return cmd
}

func tasksInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default tasks.json to the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			path := task.Path(cfg.ProjectRoot)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check task list: %w", err)
			}

			if err := task.Save(cfg.ProjectRoot, task.DefaultTasks()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing tasks.json")
	return cmd
}
