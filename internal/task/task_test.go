package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTasks_MissingFileReturnsDefaults(t *testing.T) {
	got := LoadTasks(t.TempDir())

	require.Len(t, got, 4)
	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	assert.Equal(t, []string{"build", "run-python", "run-node", "list-files"}, names)
	assert.Equal(t, DefaultTasks(), got)
}

func TestLoadTasks_FallbackCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `[{"name": "build",`},
		{"wrong shape", `{"name": "build"}`},
		{"null document", `null`},
		{"not json at all", `build: ./gradlew`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(tt.content), 0644))

			assert.Equal(t, DefaultTasks(), LoadTasks(root))
		})
	}
}

func TestLoadTasks_UnreadablePathReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	// A directory where the file should be makes ReadFile fail.
	require.NoError(t, os.Mkdir(filepath.Join(root, FileName), 0755))

	assert.Equal(t, DefaultTasks(), LoadTasks(root))
}

func TestLoadTasks_EmptyArrayIsKept(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`[]`), 0644))

	got := LoadTasks(root)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSaveLoad_PreservesEntriesVerbatim(t *testing.T) {
	root := t.TempDir()
	want := []Definition{
		{Name: "test", Command: "go test ./...", Description: "Run the unit tests"},
		{Name: "  spaced  ", Command: "make  lint", Description: ""},
		{Name: "unicode", Command: "echo héllo", Description: "Prints «héllo»"},
	}

	require.NoError(t, Save(root, want))

	got, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, LoadTasks(root))
}

func TestLoad_ParsesHandWrittenDocument(t *testing.T) {
	root := t.TempDir()
	doc := `[
  {"name": "lint", "command": "golangci-lint run", "description": "Static checks"},
  {"name": "fmt", "command": "gofmt -l ."}
]`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(doc), 0644))

	got, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, []Definition{
		{Name: "lint", Command: "golangci-lint run", Description: "Static checks"},
		{Name: "fmt", Command: "gofmt -l ."},
	}, got)
}

func TestLoad_NullDocument(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`null`), 0644))

	_, err := Load(root)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestFind(t *testing.T) {
	defs := DefaultTasks()

	got, ok := Find(defs, "run-node")
	require.True(t, ok)
	assert.Equal(t, "node index.js", got.Command)

	_, ok = Find(defs, "deploy")
	assert.False(t, ok)
}
