// Package task loads the project's list of pre-canned commands.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the task list document looked up under the project root.
const FileName = "tasks.json"

// ErrEmptyDocument is returned by Load when the task document is JSON null.
var ErrEmptyDocument = errors.New("task list is null")

// Definition is a named command intended to be run repeatedly.
// Identity is by Name within a list.
type Definition struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
}

// DefaultTasks returns the built-in task list used when the project has none.
func DefaultTasks() []Definition {
	return []Definition{
		{Name: "build", Command: "./gradlew assembleDebug", Description: "Build the current Android project"},
		{Name: "run-python", Command: "python main.py", Description: "Execute the main Python script"},
		{Name: "run-node", Command: "node index.js", Description: "Execute the main JavaScript file"},
		{Name: "list-files", Command: "ls -R", Description: "List all files in project"},
	}
}

// Path returns the location of the task document for a project.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, FileName)
}

// LoadTasks returns the project's tasks, falling back to DefaultTasks when
// the document is missing, unreadable or malformed. It never fails.
func LoadTasks(projectRoot string) []Definition {
	defs, err := Load(projectRoot)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("task list ignored, using defaults", "path", Path(projectRoot), "error", err)
		}
		return DefaultTasks()
	}
	return defs
}

// Load reads and parses the task document without applying defaults.
func Load(projectRoot string) ([]Definition, error) {
	data, err := os.ReadFile(Path(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("read task list: %w", err)
	}

	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	if defs == nil {
		return nil, ErrEmptyDocument
	}

	return defs, nil
}

// Save writes defs as the project's task document.
func Save(projectRoot string, defs []Definition) error {
	if defs == nil {
		defs = []Definition{}
	}

	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task list: %w", err)
	}

	if err := os.WriteFile(Path(projectRoot), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write task list: %w", err)
	}
	return nil
}

// Find looks up a task by name.
func Find(defs []Definition, name string) (Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
