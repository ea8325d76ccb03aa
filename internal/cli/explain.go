package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func explainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [file]",
		Short: "Explain the first recognized error in a log",
		Long: `Reads build output from a file, or from stdin when the file is "-" or
omitted, and prints an explanation of the first recognized error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			explainer, err := cfg.Explainer()
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}

			res, ok := explainer.Match(string(data))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No known error found.")
				return nil
			}
			printExplanation(cmd.OutOrStdout(), res)
			return nil
		},
	}
}
