package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/rashpile/pako-tasks/internal/version"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// VersionCommand shows the running build.
type VersionCommand struct{}

// NewVersionCommand creates a version command.
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (v *VersionCommand) Name() string {
	return "version"
}

func (v *VersionCommand) Description() string {
	return "Show current version"
}

func (v *VersionCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute writes the version information.
func (v *VersionCommand) Execute(ctx context.Context, args []string, output io.Writer) error {
	fmt.Fprintf(output, "Version:    %s\n", version.Version)
	fmt.Fprintf(output, "Commit:     %s\n", version.Commit)
	fmt.Fprintf(output, "Build Date: %s\n", version.BuildDate)
	return nil
}
