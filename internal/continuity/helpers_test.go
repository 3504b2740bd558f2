package continuity

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablekeep/continuity/internal/policy"
	"github.com/fablekeep/continuity/internal/store"
	"github.com/fablekeep/continuity/internal/story"
	"github.com/fablekeep/continuity/internal/testutil"
)

var fixtureStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fixture wires a temp store with one project, one plot structure, one act,
// and one chapter, so tests only declare scenes, characters, and snapshots.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Store
	clock *testutil.FixedClock
	ids   *testutil.SequenceIDGenerator

	projectID string
	snapSeq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		t:         t,
		ctx:       ctx,
		store:     st,
		clock:     testutil.NewFixedClock(fixtureStart.Add(30*24*time.Hour), time.Second),
		ids:       testutil.NewSequenceIDGenerator("alert"),
		projectID: "proj-1",
	}

	require.NoError(t, st.CreateProject(ctx, story.Project{ID: f.projectID, Title: "Test Story"}))
	require.NoError(t, st.CreatePlotStructure(ctx, "plot-1", f.projectID, "three_act"))
	require.NoError(t, st.CreateAct(ctx, "act-1", "plot-1", "Act One", 1))
	require.NoError(t, st.CreateChapter(ctx, story.Chapter{ID: "ch-1", ActID: "act-1", Number: 1}))
	return f
}

func (f *fixture) scanner(pol *policy.Policy) *Scanner {
	return NewScanner(f.store, pol,
		WithClock(f.clock),
		WithIDGenerator(f.ids),
	)
}

func (f *fixture) addScene(id, title string, position int, content, timeDesc string) {
	f.t.Helper()
	require.NoError(f.t, f.store.CreateScene(f.ctx, story.Scene{
		ID:              id,
		ChapterID:       "ch-1",
		Title:           title,
		Position:        position,
		TimeDescription: timeDesc,
		Content:         content,
	}))
}

func (f *fixture) addCharacter(id, name string) {
	f.t.Helper()
	require.NoError(f.t, f.store.CreateCharacter(f.ctx, story.Character{
		ID:        id,
		ProjectID: f.projectID,
		Name:      name,
	}))
}

func (f *fixture) addRule(id, name, scope string, keywords ...string) {
	f.t.Helper()
	require.NoError(f.t, f.store.CreateWorldRule(f.ctx, story.WorldRule{
		ID:          id,
		ProjectID:   f.projectID,
		Name:        name,
		Description: name,
		Scope:       story.RuleScope(scope),
		Keywords:    keywords,
	}))
}

func (f *fixture) present(characterID, sceneID, role string) {
	f.t.Helper()
	id := fmt.Sprintf("presence-%s-%s", sceneID, characterID)
	require.NoError(f.t, f.store.AddScenePresence(f.ctx, id, story.ScenePresence{
		SceneID:     sceneID,
		CharacterID: characterID,
		RoleInScene: role,
	}))
}

// snapshot appends a state snapshot one minute after the previous one, so
// snapshot timestamps always predate the fixture clock's scan times.
func (f *fixture) snapshot(characterID, sceneID, raw string) {
	f.t.Helper()
	f.snapSeq++
	at := fixtureStart.Add(time.Duration(f.snapSeq) * time.Minute)
	f.snapshotAt(characterID, sceneID, raw, at)
}

func (f *fixture) snapshotAt(characterID, sceneID, raw string, at time.Time) {
	f.t.Helper()
	f.snapSeq++
	id := fmt.Sprintf("snap-%06d", f.snapSeq)
	require.NoError(f.t, f.store.AddStateSnapshot(f.ctx, id, characterID, sceneID, raw, at))
}

func alertsOfType(alerts []story.ContinuityAlert, alertType story.AlertType) []story.ContinuityAlert {
	var out []story.ContinuityAlert
	for _, a := range alerts {
		if a.Type == alertType {
			out = append(out, a)
		}
	}
	return out
}

func signatureSet(alerts []story.ContinuityAlert) map[string]bool {
	set := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		set[a.Signature] = true
	}
	return set
}
