package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rashpile/pako-tasks/internal/output"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// ExplainCommand switches learning mode.
type ExplainCommand struct {
	mode *output.Mode
}

// NewExplainCommand creates an explain command.
func NewExplainCommand(mode *output.Mode) *ExplainCommand {
	return &ExplainCommand{mode: mode}
}

func (e *ExplainCommand) Name() string {
	return "explain"
}

func (e *ExplainCommand) Description() string {
	return "Toggle error explanations: /explain [on|off]"
}

func (e *ExplainCommand) Category() pkgcmd.CategoryInfo {
	return systemCategory
}

// Execute sets or toggles the mode and reports the new state.
func (e *ExplainCommand) Execute(ctx context.Context, args []string, out io.Writer) error {
	var on bool
	switch {
	case len(args) == 0:
		on = e.mode.Toggle()
	case strings.EqualFold(args[0], "on"):
		on = true
		e.mode.Set(true)
	case strings.EqualFold(args[0], "off"):
		e.mode.Set(false)
	default:
		return fmt.Errorf("unknown argument %q, use on or off", args[0])
	}

	fmt.Fprintf(out, "Learning mode: %s\n", onOff(on))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
