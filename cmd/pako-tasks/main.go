// pako-tasks runs a project's pre-canned tasks from Telegram or the terminal.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/rashpile/pako-tasks/internal/cli"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

func main() {
	root := cli.RootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		var exitErr *pkgcmd.ExitError
		if !errors.As(err, &exitErr) {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(pkgcmd.ExitCode(err))
	}
}
