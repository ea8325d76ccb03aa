package builtin

import (
	"context"
	"fmt"
	"io"

	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// CommandLoader loads task commands.
type CommandLoader interface {
	Load() ([]pkgcmd.Command, error)
}

// CommandReloader replaces commands in the registry.
type CommandReloader interface {
	Reload(commands []pkgcmd.Command)
}

// ReloadCommand re-reads tasks.json.
type ReloadCommand struct {
	loader   CommandLoader
	reloader CommandReloader
}

// NewReloadCommand creates a reload command.
func NewReloadCommand(loader CommandLoader, reloader CommandReloader) *ReloadCommand {
	return &ReloadCommand{
		loader:   loader,
		reloader: reloader,
	}
}

// Name returns "reload".
func (r *ReloadCommand) Name() string {
	return "reload"
}

// Description returns the reload description.
func (r *ReloadCommand) Description() string {
	return "Reload the project task list"
}

// Category returns the command's category for menu grouping.
func (r *ReloadCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute reloads task commands.
func (r *ReloadCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	n, err := Reload(r.loader, r.reloader)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Reloaded %d tasks\n", n)

	return nil
}

// Reload loads commands and swaps them into the registry. The file
// watcher shares it with /reload.
func Reload(loader CommandLoader, reloader CommandReloader) (int, error) {
	commands, err := loader.Load()
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}

	reloader.Reload(commands)
	return len(commands), nil
}
