package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
)

// executeCommand runs the CLI with args and captures stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedConflictDatabase creates a database holding one project with an
// unexplained character state change across two scenes.
func seedConflictDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.CreateProject(ctx, story.Project{ID: "proj-1", Title: "Test"}))
	require.NoError(t, st.CreatePlotStructure(ctx, "plot-1", "proj-1", ""))
	require.NoError(t, st.CreateAct(ctx, "act-1", "plot-1", "Act One", 1))
	require.NoError(t, st.CreateChapter(ctx, story.Chapter{ID: "ch-1", ActID: "act-1", Number: 1}))
	require.NoError(t, st.CreateScene(ctx, story.Scene{ID: "s1", ChapterID: "ch-1", Position: 1, Content: "Opening."}))
	require.NoError(t, st.CreateScene(ctx, story.Scene{ID: "s2", ChapterID: "ch-1", Position: 2, Content: "Closing."}))
	require.NoError(t, st.CreateCharacter(ctx, story.Character{ID: "jin", ProjectID: "proj-1", Name: "Jin"}))

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.AddStateSnapshot(ctx, "snap-1", "jin", "s1", `{"age": "17"}`, at))
	require.NoError(t, st.AddStateSnapshot(ctx, "snap-2", "jin", "s2", `{"age": "25"}`, at.Add(time.Minute)))

	return path
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "alerts", "--project", "p", "--db", "x.db")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"scan", "alerts", "resolve", "validate"} {
		require.True(t, names[want], "missing subcommand %s", want)
	}
}
